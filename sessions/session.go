package sessions

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-hms-client/credentials"
	"github.com/jrsteele09/go-hms-client/users"
)

// Reader is the read-only view of the session handed to guards, UI shells and the transport.
type Reader interface {
	CurrentUser() *users.Profile
	IsAuthenticated() bool
	IsLoading() bool
	AccessToken() string
	RefreshToken() string
}

// Snapshot is a consistent copy of the session taken under one lock.
type Snapshot struct {
	User          *users.Profile
	AccessToken   string
	RefreshToken  string
	ExpiresAt     time.Time
	Authenticated bool
	Loading       bool
}

// State is the in-memory, process-wide session context.
// It holds at most one current session; every mutation replaces the whole session at once
// so the token, expiry and profile always belong together.
type State struct {
	lock          sync.RWMutex
	current       *credentials.Credentials // nil when there is no session
	authenticated bool
	loading       bool
}

var _ Reader = (*State)(nil)

func NewState() *State {
	return &State{}
}

// Commit makes c the current session and marks the state authenticated.
func (s *State) Commit(c *credentials.Credentials) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.current = c.Clone()
	s.authenticated = true
	s.loading = false
}

// Restore seeds the state from stored credentials without claiming they have been validated.
func (s *State) Restore(c *credentials.Credentials, authenticated bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.current = c.Clone()
	s.authenticated = authenticated
}

// Clear drops the current session. It returns false when there was nothing to clear.
func (s *State) Clear() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	hadSession := s.current != nil || s.authenticated
	s.current = nil
	s.authenticated = false
	s.loading = false
	return hadSession
}

func (s *State) SetLoading(loading bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.loading = loading
}

func (s *State) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()
	snap := Snapshot{Authenticated: s.authenticated, Loading: s.loading}
	if s.current != nil {
		snap.User = s.current.User.Clone()
		snap.AccessToken = s.current.AccessToken
		snap.RefreshToken = s.current.RefreshToken
		snap.ExpiresAt = s.current.ExpiresAt
	}
	return snap
}

// Credentials returns a copy of the current session, or nil.
func (s *State) Credentials() *credentials.Credentials {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.current.Clone()
}

func (s *State) CurrentUser() *users.Profile {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.current == nil || !s.authenticated {
		return nil
	}
	return s.current.User.Clone()
}

func (s *State) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.authenticated
}

func (s *State) IsLoading() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.loading
}

func (s *State) AccessToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

func (s *State) RefreshToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.RefreshToken
}
