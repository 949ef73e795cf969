// Package session keeps the live pipeline sessions served over HTTP.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-reviews/internal/pipeline"
	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

// ErrNotFound signals that no session exists for an ID.
var ErrNotFound = errors.New("session not found")

// Factory builds a fresh pipeline session.
type Factory func() *pipeline.Session

type entry struct {
	session  *pipeline.Session
	created  time.Time
	lastSeen time.Time
}

// Registry is an in-memory, concurrency-safe session store.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	factory Factory
	ids     reviews.IDGenerator
	clock   reviews.Clock
	logger  *zap.Logger
}

// NewRegistry constructs a Registry.
func NewRegistry(factory Factory, ids reviews.IDGenerator, clock reviews.Clock, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*entry),
		factory:  factory,
		ids:      ids,
		clock:    clock,
		logger:   logger,
	}
}

// Create registers a new session and returns its ID.
func (r *Registry) Create() (string, *pipeline.Session, error) {
	id, err := r.ids.NewID()
	if err != nil {
		return "", nil, fmt.Errorf("session id: %w", err)
	}
	now := r.clock.Now()
	s := r.factory()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		return "", nil, errors.New("session already exists")
	}
	r.sessions[id] = &entry{session: s, created: now, lastSeen: now}
	return id, s, nil
}

// Get returns the session for id and marks it as used.
func (r *Registry) Get(id string) (*pipeline.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = r.clock.Now()
	return e.session, nil
}

// Delete removes a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune drops sessions unused for longer than maxIdle. Sessions with a fetch
// in flight are kept. It returns the number removed.
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := r.clock.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) && !e.session.InFlight() {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run prunes idle sessions every interval until ctx is done. A non-positive
// maxIdle disables pruning and Run returns immediately.
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if maxIdle <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Prune(maxIdle); n > 0 {
				r.logger.Info("pruned idle sessions", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}
