package memory

import (
	"context"
	"sync"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
)

// Stash keeps intents without expiry.
type Stash struct {
	mu       sync.Mutex
	sessions map[string]domain.Intent
	users    map[uint]string
}

func NewStash() *Stash {
	return &Stash{sessions: map[string]domain.Intent{}, users: map[uint]string{}}
}

func (s *Stash) Put(_ context.Context, sessionID string, intent domain.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = intent
	s.users[intent.UserID] = sessionID
	return nil
}

func (s *Stash) Take(_ context.Context, sessionID string) (*domain.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	delete(s.sessions, sessionID)
	if s.users[intent.UserID] == sessionID {
		delete(s.users, intent.UserID)
	}
	return &intent, nil
}

func (s *Stash) Peek(_ context.Context, sessionID string) (*domain.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &intent, nil
}

func (s *Stash) SessionForUser(_ context.Context, userID uint) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID], nil
}

func (s *Stash) Discard(ctx context.Context, sessionID string) error {
	_, err := s.Take(ctx, sessionID)
	return err
}

// Len reports how many intents are staged.
func (s *Stash) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

var _ domain.Stash = (*Stash)(nil)
