package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"cuecast/internal/api"
	"cuecast/internal/config"
	"cuecast/internal/jobs"
	"cuecast/internal/jobstore"
	"cuecast/internal/logging"
	"cuecast/internal/pipeline"
	"cuecast/internal/preflight"
)

// Daemon owns the job service and its HTTP surface.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *jobs.Registry
	store    *jobstore.Store
	service  *pipeline.Service
	server   *apiServer

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Address      string
	LockFilePath string
	HistoryPath  string
	Jobs         map[string]int
	Checks       []preflight.Result
}

// New constructs a daemon. History is opened here so a schema mismatch is
// reported before any lock is taken.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	var (
		store   *jobstore.Store
		regOpts []jobs.Option
		err     error
	)
	if cfg.Jobs.History {
		store, err = jobstore.Open(cfg.HistoryPath())
		if err != nil {
			return nil, fmt.Errorf("open job history: %w", err)
		}
		regOpts = append(regOpts, jobs.WithObserver(store.Observer(logger)))
	}
	registry := jobs.NewRegistry(cfg.Jobs.Shards, regOpts...)
	service, err := pipeline.NewService(cfg, registry, logger)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		store:    store,
		service:  service,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	handlerOpts := []api.Option{
		api.WithToken(cfg.API.Token),
		api.WithLogger(logger),
		api.WithStatus(d.apiStatus),
	}
	if store != nil {
		handlerOpts = append(handlerOpts, api.WithHistory(store))
	}
	d.server = newAPIServer(cfg.API.Bind, api.NewHandler(service, registry, handlerOpts...), logger)
	return d, nil
}

// Start acquires the daemon lock, runs preflight and starts the API server.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cuecast daemon instance is already running")
	}

	if failed := preflight.Failed(preflight.RunAll(ctx, d.cfg)); len(failed) > 0 {
		_ = d.lock.Unlock()
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			names = append(names, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(names, "; "))
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("cuecast daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.addr()),
	)
	return nil
}

// Stop shuts the API down, waits for running jobs and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.service.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("cuecast daemon stopped")
}

// Close stops the daemon and closes job history.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the bound API address once started.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Address:      d.server.addr(),
		LockFilePath: d.lockPath,
		Jobs:         api.CountByStatus(d.registry.List()),
		Checks:       preflight.RunAll(ctx, d.cfg),
	}
	if d.store != nil {
		status.HistoryPath = d.store.Path()
	}
	return status
}

func (d *Daemon) apiStatus(ctx context.Context) api.StatusResponse {
	resp := api.StatusResponse{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Jobs:         api.CountByStatus(d.registry.List()),
		LockFilePath: d.lockPath,
		Dependencies: api.FromDependencies(preflight.CheckSystemDeps(ctx, d.cfg)),
	}
	if d.store != nil {
		resp.HistoryPath = d.store.Path()
	}
	return resp
}
