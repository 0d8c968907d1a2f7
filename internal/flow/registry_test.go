package flow

import (
	"errors"
	"testing"
	"time"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(&fakeService{}, nil, nil)

	c := r.Create()
	if c.ID() == "" {
		t.Fatal("Create() returned controller without ID")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	got, err := r.Get(c.ID())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != c {
		t.Error("Get() returned a different controller")
	}

	if _, err := r.Get("flow_missing"); !errors.Is(err, ErrFlowNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrFlowNotFound", err)
	}

	if err := r.Remove(c.ID()); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after Remove, want 0", r.Len())
	}
	if err := r.Remove(c.ID()); !errors.Is(err, ErrFlowNotFound) {
		t.Errorf("second Remove() error = %v, want ErrFlowNotFound", err)
	}
}

func TestRegistryReapIdle(t *testing.T) {
	r := NewRegistry(&fakeService{}, nil, nil)
	stale := r.Create()
	fresh := r.Create()

	stale.mu.Lock()
	stale.lastActivity = time.Now().UTC().Add(-2 * time.Hour)
	stale.mu.Unlock()

	if reaped := r.ReapIdle(time.Hour); reaped != 1 {
		t.Errorf("ReapIdle() = %d, want 1", reaped)
	}
	if _, err := r.Get(stale.ID()); !errors.Is(err, ErrFlowNotFound) {
		t.Errorf("stale flow still registered after reap")
	}
	if _, err := r.Get(fresh.ID()); err != nil {
		t.Errorf("fresh flow reaped: %v", err)
	}
}
