package authmodel

import (
	"time"

	"github.com/jrsteele09/go-hms-client/users"
)

// AuthResponse is returned by the login and refresh-token endpoints.
type AuthResponse struct {
	// AccessToken is the short-lived bearer credential.
	// Usage: "Authorization: Bearer <accessToken>" on every protected request
	AccessToken string `json:"accessToken"`

	// RefreshToken is the opaque long-lived credential exchanged at /refresh-token.
	// Rotates on each use
	RefreshToken string `json:"refreshToken"`

	// TokenType is always "Bearer"
	TokenType string `json:"tokenType"`

	// ExpiresIn is the lifetime of the access token in seconds.
	// Example: 3600
	ExpiresIn int64 `json:"expiresIn"`

	// ExpiresAt is the absolute expiry the backend computed; may be zero on older backends
	ExpiresAt time.Time `json:"expiresAt"`

	// User is the authenticated profile
	User *users.Profile `json:"user"`
}

// Expiry resolves the absolute expiry of the access token. ExpiresIn is preferred because
// it does not depend on the clocks of client and backend agreeing.
func (r *AuthResponse) Expiry(now time.Time) time.Time {
	if r.ExpiresIn > 0 {
		return now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return r.ExpiresAt
}

// MessageResponse is returned by register and logout.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the backend's problem-detail body for every non-2xx response.
type ErrorResponse struct {
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path,omitempty"`
}
