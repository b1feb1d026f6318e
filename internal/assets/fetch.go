// Package assets resolves job inputs (audio, cue documents, background
// images) to local files. Remote sources are downloaded concurrently into the
// job's work directory; local and file:// sources are used in place.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cuecast/internal/logging"
	"cuecast/internal/services"
)

// Request names one input to resolve.
type Request struct {
	Name   string
	Source string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client used for remote sources.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLogger sets the fetcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logging.NewComponentLogger(logger, "assets")
	}
}

// Fetcher downloads job inputs with bounded concurrency.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	limit   int
	logger  *slog.Logger
}

// NewFetcher constructs a fetcher. timeout bounds each individual fetch.
func NewFetcher(timeout time.Duration, concurrency int, opts ...Option) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	f := &Fetcher{
		client:  &http.Client{},
		timeout: timeout,
		limit:   concurrency,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch resolves every request and returns local paths keyed by request name.
// The first failure cancels the remaining fetches.
func (f *Fetcher) Fetch(ctx context.Context, dir string, reqs []Request) (map[string]string, error) {
	if len(reqs) == 0 {
		return map[string]string{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrResource, "fetch", "mkdir", dir, err)
	}

	paths := make([]string, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.limit)
	for i, req := range reqs {
		g.Go(func() error {
			local, err := f.fetchOne(gctx, dir, req)
			if err != nil {
				return err
			}
			paths[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(reqs))
	for i, req := range reqs {
		out[req.Name] = paths[i]
	}
	return out, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, dir string, req Request) (string, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return "", services.Wrap(services.ErrResource, "fetch", req.Name, "source is empty", nil)
	}
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return localFile(req.Name, source)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return localFile(req.Name, u.Path)
	case "http", "https":
		return f.download(ctx, dir, req.Name, u)
	default:
		return "", services.Wrap(services.ErrResource, "fetch", req.Name, "unsupported scheme "+u.Scheme, nil)
	}
}

func localFile(name, p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", services.Wrap(services.ErrResource, "fetch", name, p, err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrResource, "fetch", name, p+" is a directory", nil)
	}
	return p, nil
}

func (f *Fetcher) download(ctx context.Context, dir, name string, u *url.URL) (string, error) {
	fetchCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", services.Wrap(services.ErrResource, "fetch", name, "build request", err)
	}
	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "fetch", name, u.Redacted(), err)
		}
		return "", services.Wrap(services.ErrResource, "fetch", name, u.Redacted(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", services.Wrap(services.ErrResource, "fetch", name, fmt.Sprintf("%s returned %d", u.Redacted(), resp.StatusCode), nil)
	}

	target := filepath.Join(dir, name+path.Ext(u.Path))
	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return "", services.Wrap(services.ErrResource, "fetch", name, "create temp file", err)
	}
	size, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(tmp.Name())
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "fetch", name, u.Redacted(), copyErr)
		}
		return "", services.Wrap(services.ErrResource, "fetch", name, "write body", copyErr)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return "", services.Wrap(services.ErrResource, "fetch", name, "rename", err)
	}

	logging.WithContext(ctx, f.logger).Debug("asset downloaded",
		logging.String("name", name),
		logging.String("url", u.Redacted()),
		logging.Int64("bytes", size),
		logging.Duration("elapsed", time.Since(start)),
	)
	return target, nil
}
