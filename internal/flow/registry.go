package flow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shvbsle/survey-sensei/internal/content"
)

// Registry holds the live flow controllers, keyed by flow ID. It hands every
// new controller the shared content service, intake validator, and notifier.
type Registry struct {
	mu    sync.RWMutex
	flows map[string]*Controller

	svc      content.Service
	intake   IntakeValidator
	notifier Notifier
}

// NewRegistry creates an empty registry. intake and notifier may be nil.
func NewRegistry(svc content.Service, intake IntakeValidator, notifier Notifier) *Registry {
	return &Registry{
		flows:    make(map[string]*Controller),
		svc:      svc,
		intake:   intake,
		notifier: notifier,
	}
}

// Create registers a fresh flow controller and returns it.
func (r *Registry) Create() *Controller {
	c := NewController(r.svc, r.intake, r.notifier)
	r.mu.Lock()
	r.flows[c.ID()] = c
	r.mu.Unlock()
	slog.Info("Registry.Create: flow created", "flowID", c.ID())
	return c
}

// Get looks up a flow controller by ID.
func (r *Registry) Get(flowID string) (*Controller, error) {
	r.mu.RLock()
	c, ok := r.flows[flowID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrFlowNotFound
	}
	return c, nil
}

// Remove drops a flow controller. Removing is how a shopper cancels and
// restarts; the underlying survey session stays in the store untouched.
func (r *Registry) Remove(flowID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flows[flowID]; !ok {
		return ErrFlowNotFound
	}
	delete(r.flows, flowID)
	slog.Info("Registry.Remove: flow removed", "flowID", flowID)
	return nil
}

// Len reports the number of live flows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}

// ReapIdle drops flows whose last activity is older than maxIdle and returns
// how many were removed. Intended to run on a schedule.
func (r *Registry) ReapIdle(maxIdle time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	reaped := 0
	for id, c := range r.flows {
		if c.LastActivity().Before(cutoff) {
			delete(r.flows, id)
			reaped++
			slog.Info("Registry.ReapIdle: idle flow reaped", "flowID", id)
		}
	}
	return reaped
}
