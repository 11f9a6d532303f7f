package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials for the life of the process only.
type MemoryStore struct {
	lock  sync.RWMutex
	creds *Credentials
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*Credentials, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.creds == nil {
		return &Credentials{}, nil
	}
	return s.creds.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, c *Credentials) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.creds = c.Clone()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.creds = nil
	return nil
}
