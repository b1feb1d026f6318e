// Package pipeline turns a render request into a finished video: it resolves
// settings once, fetches assets, builds the overlay document and background
// graph, and drives the encoder, recording every step in the job registry.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"cuecast/internal/assets"
	"cuecast/internal/compositor"
	"cuecast/internal/config"
	"cuecast/internal/encoder"
	"cuecast/internal/jobs"
	"cuecast/internal/logging"
	"cuecast/internal/media/audio"
	"cuecast/internal/services"
	"cuecast/internal/textwrap"
	"cuecast/internal/timeline"
)

// Artifact names inside a job work directory.
const (
	OverlayFile = "overlay.ass"
	OutputFile  = "out.mp4"
)

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator overrides job id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithFetcher overrides the asset fetcher.
func WithFetcher(f *assets.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// Service executes render jobs.
type Service struct {
	cfg      *config.Config
	registry *jobs.Registry
	fetcher  *assets.Fetcher
	runner   *encoder.Runner
	prober   *audio.Prober
	metrics  textwrap.Metrics
	logger   *slog.Logger
	newID    func() string
	wg       sync.WaitGroup
}

// NewService wires a service from configuration. When a font file is
// configured the glyph metrics are calibrated from it once.
func NewService(cfg *config.Config, registry *jobs.Registry, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil || registry == nil {
		return nil, errors.New("pipeline: config and registry are required")
	}
	metrics, err := Metrics(cfg.Text)
	if err != nil {
		return nil, err
	}
	logger = logging.NewComponentLogger(logger, "pipeline")

	runnerOpts := []encoder.Option{encoder.WithLogger(logger)}
	if cfg.Encoder.VerifyOutput {
		runnerOpts = append(runnerOpts, encoder.WithVerifier(cfg.Encoder.FFprobeBinary))
	}
	s := &Service{
		cfg:      cfg,
		registry: registry,
		fetcher:  assets.NewFetcher(cfg.FetchTimeout(), cfg.Fetch.MaxConcurrency, assets.WithLogger(logger)),
		runner:   encoder.NewRunner(cfg.EncoderTimeout(), cfg.Encoder.DiagnosticBytes, runnerOpts...),
		metrics:  metrics,
		logger:   logger,
		newID:    uuid.NewString,
	}
	if cfg.Jobs.ProbeAudio {
		s.prober = audio.NewProber(cfg.Encoder.FFprobeBinary)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Metrics returns the glyph metrics for the text section, calibrated from the
// configured font file when one is set.
func Metrics(text config.Text) (textwrap.Metrics, error) {
	m := textwrap.Metrics{
		NormalEm:  text.NormalEm,
		BoldEm:    text.BoldEm,
		OutlinePx: text.OutlinePx,
		MinChars:  text.MinChars,
	}
	if text.FontFile == "" {
		return m, nil
	}
	ttf, err := os.ReadFile(text.FontFile)
	if err != nil {
		return m, services.Wrap(services.ErrConfiguration, "config", "font_file", text.FontFile, err)
	}
	calibrated, err := textwrap.Calibrate(m, ttf)
	if err != nil {
		return m, services.Wrap(services.ErrConfiguration, "config", "font_file", "calibrate", err)
	}
	return calibrated, nil
}

// Registry exposes the job registry backing the service.
func (s *Service) Registry() *jobs.Registry { return s.registry }

// Resolve applies defaults using the service's glyph metrics.
func (s *Service) Resolve(req Request) (Settings, error) {
	settings, err := Resolve(req, s.metrics)
	if err != nil {
		return Settings{}, err
	}
	if settings.InlineCues != nil {
		if _, err := settings.InlineCues.Timeline(settings.Lines); err != nil {
			return Settings{}, services.Wrap(services.ErrValidation, "request", "cues", "", err)
		}
	}
	return settings, nil
}

// Submit validates req, registers a queued job, and runs it in the
// background. Validation errors are returned before any id is issued.
func (s *Service) Submit(ctx context.Context, req Request) (jobs.Snapshot, error) {
	settings, err := s.Resolve(req)
	if err != nil {
		return jobs.Snapshot{}, err
	}
	snap, err := s.registry.Create(s.newID())
	if err != nil {
		return jobs.Snapshot{}, err
	}

	jobCtx := services.WithJobID(context.WithoutCancel(ctx), snap.ID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Execute(jobCtx, snap.ID, settings)
	}()
	return snap, nil
}

// Render runs a job to completion in the caller's goroutine.
func (s *Service) Render(ctx context.Context, req Request) (jobs.Snapshot, error) {
	settings, err := s.Resolve(req)
	if err != nil {
		return jobs.Snapshot{}, err
	}
	snap, err := s.registry.Create(s.newID())
	if err != nil {
		return jobs.Snapshot{}, err
	}
	return s.Execute(services.WithJobID(ctx, snap.ID), snap.ID, settings), nil
}

// Wait blocks until every submitted job has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Execute runs a registered job and always leaves it in a terminal state.
func (s *Service) Execute(ctx context.Context, id string, settings Settings) (final jobs.Snapshot) {
	logger := logging.WithContext(ctx, s.logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked",
				logging.String(logging.FieldEventType, "job_panic"),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			final = s.fail(ctx, id, fmt.Errorf("internal error: %v", r))
		}
	}()

	if _, err := s.registry.Start(id); err != nil {
		logger.Error("job start failed", logging.Error(err))
		snap, _ := s.registry.Get(id)
		return snap
	}
	logger.Info("job started", logging.String("layout", settings.Layout.String()))

	output, elapsed, err := s.execute(ctx, id, settings)
	if err != nil {
		return s.fail(ctx, id, err)
	}
	snap, err := s.registry.Succeed(id, output, elapsed)
	if err != nil {
		logger.Error("job completion failed", logging.Error(err))
		return snap
	}
	logger.Info("job succeeded",
		logging.String("output", output),
		logging.Int64("duration_ms", snap.DurationMs),
	)
	return snap
}

func (s *Service) fail(ctx context.Context, id string, cause error) jobs.Snapshot {
	logger := logging.WithContext(ctx, s.logger)
	snap, err := s.registry.Fail(id, cause.Error())
	if err != nil {
		logger.Error("job failure could not be recorded", logging.Error(err))
		return snap
	}
	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.Error(cause),
		logging.String("error_kind", string(services.KindOf(cause))),
	)
	return snap
}

// Prepared is everything a job needs right before the encoder runs.
type Prepared struct {
	Settings    Settings
	Timeline    timeline.Timeline
	Overlay     Overlay
	OverlayPath string
	Composition *compositor.Composition
	Invocation  encoder.Invocation
}

// Prepare resolves req and builds the overlay and encoder invocation inside
// dir without registering or running a job. Remote assets are fetched into
// dir/assets.
func (s *Service) Prepare(ctx context.Context, req Request, dir string) (Prepared, error) {
	settings, err := s.Resolve(req)
	if err != nil {
		return Prepared{}, err
	}
	return s.prepare(ctx, settings, dir)
}

func (s *Service) prepare(ctx context.Context, settings Settings, dir string) (Prepared, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Prepared{}, services.Wrap(services.ErrResource, "prepare", "mkdir", dir, err)
	}

	fetchCtx := services.WithStage(ctx, "fetch")
	local, err := s.fetcher.Fetch(fetchCtx, filepath.Join(dir, "assets"), assetRequests(settings))
	if err != nil {
		return Prepared{}, err
	}
	settings = localize(settings, local)

	tl, err := s.loadTimeline(settings, local["cues"])
	if err != nil {
		return Prepared{}, err
	}
	if s.prober != nil {
		probeCtx := services.WithStage(ctx, "probe")
		report, err := s.prober.Durations(probeCtx, []string{local["audio"]})
		if err != nil {
			logging.WithContext(probeCtx, s.logger).Warn("audio probe failed; using cue total",
				logging.Error(err),
				logging.String(logging.FieldEventType, "audio_probe_failed"),
				logging.String(logging.FieldErrorHint, "check ffprobe_binary"),
			)
		} else {
			tl = tl.ExtendTo(report.TotalMs)
		}
	}

	overlay, err := BuildOverlay(settings, tl)
	if err != nil {
		return Prepared{}, err
	}
	overlayPath := filepath.Join(dir, OverlayFile)
	if err := os.WriteFile(overlayPath, overlay.Document, 0o644); err != nil {
		return Prepared{}, services.Wrap(services.ErrResource, "overlay", "write", overlayPath, err)
	}

	comp := BuildGraph(settings, tl, overlayPath)
	plan := EncodePlan(settings, s.cfg.Encoder, comp, local["audio"], filepath.Join(dir, OutputFile), tl.TotalMs)
	return Prepared{
		Settings:    settings,
		Timeline:    tl,
		Overlay:     overlay,
		OverlayPath: overlayPath,
		Composition: comp,
		Invocation:  encoder.Build(s.cfg.Encoder.FFmpegBinary, plan),
	}, nil
}

func (s *Service) execute(ctx context.Context, id string, settings Settings) (string, time.Duration, error) {
	prepared, err := s.prepare(ctx, settings, filepath.Join(s.cfg.Paths.WorkDir, id))
	if err != nil {
		return "", 0, err
	}

	encodeCtx := services.WithStage(ctx, "encode")
	logging.WithContext(encodeCtx, s.logger).Info("encoding",
		logging.Int("clips", len(prepared.Composition.Clips)),
		logging.Int("events", len(prepared.Overlay.Plan.Events)),
		logging.Int64("total_ms", prepared.Timeline.TotalMs),
	)
	res, err := s.runner.Run(encodeCtx, prepared.Invocation)
	if err != nil {
		return "", 0, err
	}
	return res.Output, res.Elapsed, nil
}

func (s *Service) loadTimeline(settings Settings, cuesPath string) (timeline.Timeline, error) {
	payload := settings.InlineCues
	if payload == nil {
		data, err := os.ReadFile(cuesPath)
		if err != nil {
			return timeline.Timeline{}, services.Wrap(services.ErrResource, "timeline", "read cues", cuesPath, err)
		}
		decoded, err := timeline.DecodePayload(bytes.NewReader(data))
		if err != nil {
			return timeline.Timeline{}, services.Wrap(services.ErrResource, "timeline", "decode cues", "", err)
		}
		payload = &decoded
	}
	tl, err := payload.Timeline(settings.Lines)
	if err != nil {
		return timeline.Timeline{}, services.Wrap(services.ErrResource, "timeline", "build", "", err)
	}
	return tl, nil
}

func spanKey(i int) string { return "span-" + strconv.Itoa(i) }

func assetRequests(s Settings) []assets.Request {
	reqs := []assets.Request{{Name: "audio", Source: s.AudioSource}}
	if s.InlineCues == nil {
		reqs = append(reqs, assets.Request{Name: "cues", Source: s.CuesSource})
	}
	if s.Background.Image != "" {
		reqs = append(reqs, assets.Request{Name: "background", Source: s.Background.Image})
	}
	for i, span := range s.Spans {
		reqs = append(reqs, assets.Request{Name: spanKey(i), Source: span.Image})
	}
	return reqs
}

// localize swaps remote references for fetched paths.
func localize(s Settings, local map[string]string) Settings {
	if p, ok := local["background"]; ok {
		s.Background.Image = p
	}
	if len(s.Spans) > 0 {
		spans := make([]compositor.Span, len(s.Spans))
		for i, span := range s.Spans {
			span.Image = local[spanKey(i)]
			spans[i] = span
		}
		s.Spans = spans
	}
	return s
}
