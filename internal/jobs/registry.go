// Package jobs tracks the lifecycle of render jobs.
//
// The registry is sharded by job id so creates and lookups for different jobs
// never contend on one lock. Each entry publishes immutable snapshots through
// an atomic pointer: readers load the current snapshot without locking, and the
// owning task advances it with compare-and-swap. Transitions are one way
// (Queued, Running, then exactly one of Succeeded or Failed).
package jobs

import (
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrNotFound          = errors.New("job not found")
	ErrDuplicate         = errors.New("job already exists")
	ErrInvalidTransition = errors.New("invalid job transition")
)

// Snapshot is an immutable view of one job.
type Snapshot struct {
	ID         string
	Status     Status
	Message    string
	DurationMs int64
	Output     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Observer is notified after every successful transition, including creation.
type Observer func(Snapshot)

type entry struct {
	current atomic.Pointer[Snapshot]
}

type shard struct {
	mu   sync.RWMutex
	jobs map[string]*entry
}

// Registry is a concurrent job table.
type Registry struct {
	shards   []shard
	observer Observer
	now      func() time.Time
}

// Option configures a registry.
type Option func(*Registry)

// WithObserver installs a transition observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry constructs a registry with the given shard count (minimum 1).
func NewRegistry(shards int, opts ...Option) *Registry {
	if shards < 1 {
		shards = 1
	}
	r := &Registry{shards: make([]shard, shards), now: time.Now}
	for i := range r.shards {
		r.shards[i].jobs = make(map[string]*entry)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.shards[h.Sum32()%uint32(len(r.shards))]
}

// Create registers a queued job.
func (r *Registry) Create(id string) (Snapshot, error) {
	if id == "" {
		return Snapshot{}, fmt.Errorf("create job: empty id")
	}
	now := r.now().UTC()
	snap := &Snapshot{ID: id, Status: StatusQueued, CreatedAt: now, UpdatedAt: now}

	s := r.shardFor(id)
	s.mu.Lock()
	if _, ok := s.jobs[id]; ok {
		s.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	e := &entry{}
	e.current.Store(snap)
	s.jobs[id] = e
	s.mu.Unlock()

	r.notify(*snap)
	return *snap, nil
}

func (r *Registry) lookup(id string) (*entry, bool) {
	s := r.shardFor(id)
	s.mu.RLock()
	e, ok := s.jobs[id]
	s.mu.RUnlock()
	return e, ok
}

// Get returns the current snapshot for id.
func (r *Registry) Get(id string) (Snapshot, bool) {
	e, ok := r.lookup(id)
	if !ok {
		return Snapshot{}, false
	}
	return *e.current.Load(), true
}

// List returns all jobs ordered by creation time, then id.
func (r *Registry) List() []Snapshot {
	var out []Snapshot
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for _, e := range s.jobs {
			out = append(out, *e.current.Load())
		}
		s.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// Start moves a queued job to running.
func (r *Registry) Start(id string) (Snapshot, error) {
	return r.transition(id, StatusRunning, func(s *Snapshot) {})
}

// Succeed records the artifact and encode duration and finishes the job.
func (r *Registry) Succeed(id, output string, duration time.Duration) (Snapshot, error) {
	return r.transition(id, StatusSucceeded, func(s *Snapshot) {
		s.Output = output
		s.DurationMs = duration.Milliseconds()
		s.Message = ""
	})
}

// Fail finishes the job with a diagnostic message.
func (r *Registry) Fail(id, message string) (Snapshot, error) {
	return r.transition(id, StatusFailed, func(s *Snapshot) {
		s.Message = message
	})
}

func (r *Registry) transition(id string, to Status, mutate func(*Snapshot)) (Snapshot, error) {
	e, ok := r.lookup(id)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for {
		cur := e.current.Load()
		if !canTransition(cur.Status, to) {
			return *cur, fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, id, cur.Status, to)
		}
		next := *cur
		next.Status = to
		next.UpdatedAt = r.now().UTC()
		mutate(&next)
		if e.current.CompareAndSwap(cur, &next) {
			r.notify(next)
			return next, nil
		}
	}
}

func (r *Registry) notify(s Snapshot) {
	if r.observer != nil {
		r.observer(s)
	}
}
