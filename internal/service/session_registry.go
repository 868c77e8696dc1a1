package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"pathforge/internal/domain"
	"pathforge/internal/metrics"
)

var ErrSessionNotFound = errors.New("session not found")

const DefaultSessionTTL = 30 * time.Minute

// Session es una evaluacion en curso. Sus campos solo se tocan dentro de SessionRegistry.With.
type Session struct {
	ID        string                    `json:"id"`
	State     *domain.AssessmentState   `json:"state"`
	Prefs     domain.LearnerPreferences `json:"preferences"`
	Pending   *QuestionResult           `json:"pending,omitempty"`
	Last      *Step                     `json:"last_step,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
	Answers   int                       `json:"answers"`

	mu       sync.Mutex
	lastSeen time.Time
}

// Finished indica que la sesion ya produjo un final_result.
func (s *Session) Finished() bool {
	return s.Last.Final()
}

// SessionRegistry guarda un estado por id con un mutex por entrada y expiracion por inactividad.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
}

func NewSessionRegistry(ttl time.Duration, m *metrics.Metrics) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		metrics:  m,
	}
}

// Create registra una sesion nueva con id aleatorio.
func (r *SessionRegistry) Create(state *domain.AssessmentState, prefs domain.LearnerPreferences) *Session {
	now := r.now()
	s := &Session{
		ID:        uuid.NewString(),
		State:     state,
		Prefs:     prefs,
		CreatedAt: now,
		lastSeen:  now,
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()
	r.metrics.SetActiveSessions(n)
	return s
}

// With ejecuta fn con la sesion bloqueada. Una sesion vencida cuenta como inexistente.
func (r *SessionRegistry) With(id string, fn func(*Session) error) error {
	s, err := r.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func (r *SessionRegistry) Delete(id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	r.metrics.SetActiveSessions(n)
	return nil
}

// Sweep elimina las sesiones vencidas y devuelve cuantas quito.
func (r *SessionRegistry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if r.expired(s, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()
	r.metrics.SetActiveSessions(n)
	return removed
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) lookup(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := r.now()
	if r.expired(s, now) {
		delete(r.sessions, id)
		r.metrics.SetActiveSessions(len(r.sessions))
		return nil, ErrSessionNotFound
	}
	s.lastSeen = now
	return s, nil
}

// expired requiere r.mu tomado: lastSeen solo se toca bajo ese lock.
func (r *SessionRegistry) expired(s *Session, now time.Time) bool {
	return now.Sub(s.lastSeen) > r.ttl
}
