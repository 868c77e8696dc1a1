package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"pathforge/internal/domain"
	"pathforge/internal/metrics"
)

func TestSessionRegistryLifecycle(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := NewSessionRegistry(time.Minute, m)

	s := r.Create(&domain.AssessmentState{}, domain.DefaultPreferences())
	if s.ID == "" || r.Len() != 1 {
		t.Fatalf("session not registered: %+v", s)
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 1 {
		t.Fatalf("expected active sessions gauge 1, got %v", got)
	}

	called := false
	if err := r.With(s.ID, func(*Session) error { called = true; return nil }); err != nil || !called {
		t.Fatalf("With failed: called=%v err=%v", called, err)
	}
	wantErr := errors.New("boom")
	if err := r.With(s.ID, func(*Session) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("With must return fn error, got %v", err)
	}

	if err := r.Delete(s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.Delete(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := r.With(s.ID, func(*Session) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRegistryExpiry(t *testing.T) {
	r := NewSessionRegistry(time.Minute, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	idle := r.Create(&domain.AssessmentState{}, domain.LearnerPreferences{})
	active := r.Create(&domain.AssessmentState{}, domain.LearnerPreferences{})

	now = now.Add(50 * time.Second)
	if err := r.With(active.ID, func(*Session) error { return nil }); err != nil {
		t.Fatalf("touch active: %v", err)
	}

	now = now.Add(30 * time.Second)
	if removed := r.Sweep(); removed != 1 {
		t.Fatalf("expected one expired session, got %d", removed)
	}
	if err := r.With(idle.ID, func(*Session) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("idle session should be gone, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := r.With(active.ID, func(*Session) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expired session must read as not found, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestSessionRegistrySerializesPerSession(t *testing.T) {
	r := NewSessionRegistry(time.Minute, nil)
	s := r.Create(&domain.AssessmentState{}, domain.LearnerPreferences{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.With(s.ID, func(sess *Session) error {
				sess.Answers++
				return nil
			})
		}()
	}
	wg.Wait()

	_ = r.With(s.ID, func(sess *Session) error {
		if sess.Answers != 50 {
			t.Errorf("expected 50 serialized updates, got %d", sess.Answers)
		}
		return nil
	})
}
