package usecase

import (
	"errors"
	"testing"
	"time"
)

func newTestRegistry(idle time.Duration) (*SessionRegistry, *time.Time) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewSessionRegistry(func() *ListLoader {
		return NewListLoader(&scriptedFetcher{})
	}, idle, nil)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestSessionRegistry_OpenGetClose(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(0)

	id, loader := r.Open()
	if id == "" || loader == nil {
		t.Fatalf("Open returned id=%q loader=%v", id, loader)
	}

	got, err := r.Get(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != loader {
		t.Errorf("Get returned a different loader")
	}

	if err := r.Close(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Get(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("got error %v, want %v", err, ErrSessionNotFound)
	}
	if err := r.Close(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Close got %v, want %v", err, ErrSessionNotFound)
	}
}

func TestSessionRegistry_sessionsAreIndependent(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(0)

	id1, l1 := r.Open()
	id2, l2 := r.Open()
	if id1 == id2 || l1 == l2 {
		t.Fatalf("sessions share identity")
	}
	if r.Len() != 2 {
		t.Errorf("Len got %d, want 2", r.Len())
	}
}

func TestSessionRegistry_expiresIdleSessions(t *testing.T) {
	t.Parallel()

	r, now := newTestRegistry(10 * time.Minute)

	idle, _ := r.Open()
	active, _ := r.Open()

	*now = now.Add(6 * time.Minute)
	if _, err := r.Get(active); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	*now = now.Add(6 * time.Minute)
	if _, err := r.Get(idle); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("idle session: got error %v, want %v", err, ErrSessionNotFound)
	}
	if _, err := r.Get(active); err != nil {
		t.Errorf("active session should survive: %v", err)
	}
}

func TestSessionRegistry_EvictIdle(t *testing.T) {
	t.Parallel()

	r, now := newTestRegistry(time.Minute)
	r.Open()
	r.Open()

	if n := r.EvictIdle(now.Add(2 * time.Minute)); n != 2 {
		t.Errorf("evicted got %d, want 2", n)
	}
	if r.Len() != 0 {
		t.Errorf("Len got %d, want 0", r.Len())
	}
}
