// Package consistency implements the read-after-write router: for a bounded
// window after a confirmed write, reads of that record are steered to the
// primary store so callers don't race replica lag. Best-effort only; it
// reduces the odds of a stale read, it never blocks one.
package consistency

import (
	"context"
	"sync"
	"time"
)

// ReadPreference is where a read for a given record should go.
type ReadPreference string

const (
	ReadPrimary ReadPreference = "primary"
	ReadReplica ReadPreference = "replica"
)

const (
	DefaultWindow        = 60 * time.Second
	DefaultCapacity      = 1000
	DefaultSweepInterval = 30 * time.Second
)

// Router tracks recent writes in a capacity-bounded in-memory map. The map is
// shared between job-completion writers and request-path readers, so all
// access is mutex-guarded. Per-process only: a horizontally scaled deployment
// would need a shared store behind the same interface.
type Router struct {
	mu       sync.Mutex
	writes   map[string]time.Time
	window   time.Duration
	capacity int
	now      func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithWindow overrides the consistency window.
func WithWindow(window time.Duration) Option {
	return func(r *Router) { r.window = window }
}

// WithCapacity overrides the entry bound.
func WithCapacity(capacity int) Option {
	return func(r *Router) { r.capacity = capacity }
}

// WithClock injects the time source, so window expiry is testable without
// real time passing.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// NewRouter builds a router with the default window, capacity and clock.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		writes:   make(map[string]time.Time),
		window:   DefaultWindow,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordWrite registers a confirmed write. Called exactly once per committed
// program, after post-write verification has passed.
func (r *Router) RecordWrite(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes[id] = r.now()
	if len(r.writes) > r.capacity {
		r.evictOldestLocked()
	}
}

// RouteRead picks the read preference for a record: primary while the record
// is inside its consistency window, replica otherwise (including for ids
// never written here).
func (r *Router) RouteRead(id string) ReadPreference {
	r.mu.Lock()
	defer r.mu.Unlock()

	writtenAt, ok := r.writes[id]
	if !ok {
		return ReadReplica
	}
	if r.now().Sub(writtenAt) >= r.window {
		delete(r.writes, id)
		return ReadReplica
	}
	return ReadPrimary
}

// Len reports the current number of tracked writes.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

// Sweep drops every entry older than the window.
func (r *Router) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.window)
	for id, writtenAt := range r.writes {
		if !writtenAt.After(cutoff) {
			delete(r.writes, id)
		}
	}
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (r *Router) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// evictOldestLocked removes entries beyond capacity, oldest first.
// Caller holds the mutex.
func (r *Router) evictOldestLocked() {
	for len(r.writes) > r.capacity {
		var oldestID string
		var oldestAt time.Time
		first := true
		for id, at := range r.writes {
			if first || at.Before(oldestAt) {
				oldestID, oldestAt = id, at
				first = false
			}
		}
		delete(r.writes, oldestID)
	}
}
