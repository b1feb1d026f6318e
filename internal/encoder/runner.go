package encoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"cuecast/internal/logging"
	"cuecast/internal/media/ffprobe"
	"cuecast/internal/services"
)

// ErrEmptyOutput reports a clean exit that left no usable artifact.
var ErrEmptyOutput = errors.New("encoder produced no output")

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (output []byte, exitCode int, err error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.WaitDelay = 5 * time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, exitErr.ExitCode(), nil
		}
		return out, -1, err
	}
	return out, 0, nil
}

// Result describes a finished encode.
type Result struct {
	Output    string
	SizeBytes int64
	Elapsed   time.Duration
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(e Executor) Option {
	return func(r *Runner) {
		if e != nil {
			r.exec = e
		}
	}
}

// WithVerifier probes finished artifacts with the given ffprobe binary.
func WithVerifier(ffprobeBinary string) Option {
	return func(r *Runner) {
		r.ffprobe = strings.TrimSpace(ffprobeBinary)
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logging.NewComponentLogger(logger, "encoder")
	}
}

// Runner executes invocations under a deadline.
type Runner struct {
	timeout         time.Duration
	diagnosticBytes int
	ffprobe         string
	exec            Executor
	logger          *slog.Logger
}

// NewRunner constructs a runner. A zero timeout disables the deadline.
func NewRunner(timeout time.Duration, diagnosticBytes int, opts ...Option) *Runner {
	r := &Runner{
		timeout:         timeout,
		diagnosticBytes: diagnosticBytes,
		exec:            commandExecutor{},
		logger:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes inv. Success requires exit code 0 and a non-empty output file.
func (r *Runner) Run(ctx context.Context, inv Invocation) (Result, error) {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	logging.WithContext(ctx, r.logger).Debug("encoder starting", logging.String("command", inv.String()))
	output, code, err := r.exec.Run(runCtx, inv.Binary, inv.Args)
	elapsed := time.Since(start)

	if runCtx.Err() != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{}, services.Wrap(services.ErrTimeout, "encode", inv.Binary,
			fmt.Sprintf("exceeded %s: %s", r.timeout, r.tail(output)), runCtx.Err())
	}
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "encode", inv.Binary, "start failed", err)
	}
	if code != 0 {
		return Result{}, services.Wrap(services.ErrExternalTool, "encode", inv.Binary,
			fmt.Sprintf("exit %d: %s", code, r.tail(output)), nil)
	}

	info, statErr := os.Stat(inv.Output)
	if statErr != nil || info.Size() == 0 {
		return Result{}, services.Wrap(services.ErrExternalTool, "encode", inv.Binary, inv.Output, ErrEmptyOutput)
	}

	if r.ffprobe != "" {
		probe, err := ffprobe.Inspect(ctx, r.ffprobe, inv.Output)
		if err != nil {
			return Result{}, services.Wrap(services.ErrExternalTool, "encode", "verify", inv.Output, err)
		}
		if probe.VideoStreamCount() == 0 {
			return Result{}, services.Wrap(services.ErrExternalTool, "encode", "verify", "artifact has no video stream", ErrEmptyOutput)
		}
	}

	return Result{Output: inv.Output, SizeBytes: info.Size(), Elapsed: elapsed}, nil
}

func (r *Runner) tail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if r.diagnosticBytes > 0 && len(text) > r.diagnosticBytes {
		cut := len(text) - r.diagnosticBytes
		for cut < len(text) && !utf8.RuneStart(text[cut]) {
			cut++
		}
		text = "…" + text[cut:]
	}
	if text == "" {
		return "no output"
	}
	return text
}

// Run executes inv with a default runner bounded by timeout.
func Run(ctx context.Context, inv Invocation, timeout time.Duration) (Result, error) {
	return NewRunner(timeout, 0).Run(ctx, inv)
}
