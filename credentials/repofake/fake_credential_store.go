package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-hms-client/credentials"
)

var _ credentials.Store = (*FakeCredentialStore)(nil)

// FakeCredentialStore keeps credentials in memory and counts writes.
type FakeCredentialStore struct {
	creds   *credentials.Credentials
	saves   int
	clears  int
	errSave error
	lock    sync.RWMutex
}

func NewFakeCredentialStore() *FakeCredentialStore {
	return &FakeCredentialStore{}
}

// NewFakeCredentialStoreWith returns a store pre-populated with c, as if left over from a previous run.
func NewFakeCredentialStoreWith(c *credentials.Credentials) *FakeCredentialStore {
	return &FakeCredentialStore{creds: c.Clone()}
}

func (s *FakeCredentialStore) Load(_ context.Context) (*credentials.Credentials, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.creds == nil {
		return &credentials.Credentials{}, nil
	}
	return s.creds.Clone(), nil
}

func (s *FakeCredentialStore) Save(_ context.Context, c *credentials.Credentials) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.saves++
	if s.errSave != nil {
		return s.errSave
	}
	s.creds = c.Clone()
	return nil
}

// FailSaves makes every following Save return err; nil restores normal behaviour
func (s *FakeCredentialStore) FailSaves(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.errSave = err
}

func (s *FakeCredentialStore) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.creds = nil
	s.clears++
	return nil
}

// Saves returns how many times Save has been called
func (s *FakeCredentialStore) Saves() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.saves
}

// Clears returns how many times Clear has been called
func (s *FakeCredentialStore) Clears() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.clears
}
