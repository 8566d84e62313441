// Package session holds the in-process session store.
package session

import (
	"context"
	"sync"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

// MemoryStore keeps the session in process memory. It is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	session *domain.Session
}

var _ ports.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, domain.ErrNotAuthenticated
	}
	cp := *s.session
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, session *domain.Session) error {
	if session == nil {
		return domain.ErrInvalidSession
	}
	cp := *session
	s.mu.Lock()
	s.session = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	return nil
}
