package api

import (
	"sync"
	"time"

	"sambou/internal/workflow"

	"github.com/google/uuid"
)

// ControllerFactory builds the workflow controller for a new session id
type ControllerFactory func(id string) *workflow.Controller

type entry struct {
	controller *workflow.Controller
	lastSeen   time.Time
}

// Registry holds the live workflow sessions. Nothing is persisted; an evicted
// or restarted session starts over.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	factory  ControllerFactory
	now      func() time.Time
}

// NewRegistry creates an empty session registry
func NewRegistry(factory ControllerFactory) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		factory:  factory,
		now:      time.Now,
	}
}

// Create registers a controller under a fresh session id
func (r *Registry) Create() *workflow.Controller {
	id := uuid.NewString()
	ctrl := r.factory(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &entry{controller: ctrl, lastSeen: r.now()}
	return ctrl
}

// Get returns the controller for a session and marks it used
func (r *Registry) Get(id string) (*workflow.Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.controller, true
}

// Delete drops a session
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than maxIdle and returns how many went
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
