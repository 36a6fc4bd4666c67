package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned for unknown or expired session identifiers.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is a thread-safe in-memory session registry. Sessions idle
// for longer than the configured timeout are removed by a periodic sweep.
type SessionStore struct {
	deps Deps
	idle time.Duration
	log  zerolog.Logger
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	scheduler *gocron.Scheduler
}

// NewSessionStore creates an empty store.
func NewSessionStore(deps Deps, idle time.Duration) *SessionStore {
	return &SessionStore{
		deps:     deps,
		idle:     idle,
		log:      deps.Log,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session and renders its initial outputs.
func (s *SessionStore) Create(ctx context.Context) (*Session, error) {
	sess, err := NewSession(uuid.NewString(), s.deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if _, err := sess.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to render session: %w", err)
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.log.Info().Str("session", sess.ID()).Int("active", n).Msg("session created")
	return sess, nil
}

// Get returns a live session.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Delete closes and removes a session.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.Close()
	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the timeout and returns how
// many were removed.
func (s *SessionStore) Sweep() int {
	cutoff := s.now().Add(-s.idle)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		s.log.Info().Int("expired", len(expired)).Msg("idle sessions removed")
	}
	return len(expired)
}

// Start schedules the idle sweep every interval.
func (s *SessionStore) Start(interval time.Duration) error {
	sched := gocron.NewScheduler(time.UTC)
	if _, err := sched.Every(interval).Do(func() { s.Sweep() }); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	sched.StartAsync()
	s.scheduler = sched
	return nil
}

// Stop cancels the sweep and closes every session.
func (s *SessionStore) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}
