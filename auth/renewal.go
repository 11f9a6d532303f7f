package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-hms-client/authmodel"
	"github.com/jrsteele09/go-hms-client/credentials"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/jrsteele09/go-hms-client/notify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Renew exchanges refreshToken for a new session and commits it. Concurrent calls for the same
// refresh token share one exchange and one outcome. A rejected renewal ends the session and
// shows a single "Session Expired" toast.
func (m *Manager) Renew(ctx context.Context, refreshToken string) (*credentials.Credentials, error) {
	if refreshToken == "" {
		return nil, errors.Wrap(hmserrors.ErrNoRefreshToken, "[Manager.Renew]")
	}

	result, err, shared := m.renewals.Do(refreshToken, func() (any, error) {
		// the flight outlives whichever caller started it
		return m.renew(context.WithoutCancel(ctx), refreshToken)
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Renew]")
	}
	if shared {
		log.Debug().Msg("joined in-flight renewal")
	}
	return result.(*credentials.Credentials).Clone(), nil
}

func (m *Manager) renew(ctx context.Context, refreshToken string) (*credentials.Credentials, error) {
	// a caller arriving after its flight settled must not renew a second time
	if m.hasFailed(refreshToken) {
		return nil, hmserrors.ErrSessionExpired
	}
	if current := m.state.Credentials(); current != nil && current.RefreshToken != "" && current.RefreshToken != refreshToken {
		return current, nil
	}

	resp := &authmodel.AuthResponse{}
	req := authmodel.RefreshTokenRequest{RefreshToken: refreshToken}
	if err := m.api.Post(ctx, authmodel.PathRefreshToken, req, resp); err != nil {
		m.markFailed(refreshToken)
		log.Warn().Err(err).Msg("session renewal rejected")
		m.notifier.Show(notify.Toast{
			Type:    notify.ToastError,
			Title:   "Session Expired",
			Message: "Your session has expired. Please login again.",
		})
		m.endSession(ctx)
		m.navigate(ctx, m.loginRoute)
		return nil, fmt.Errorf("%w: %w", hmserrors.ErrSessionExpired, err)
	}

	renewed := m.credentialsFrom(resp)
	if current := m.state.Credentials(); renewed.User == nil && current != nil {
		renewed.User = current.User
	}

	m.commitLock.Lock()
	defer m.commitLock.Unlock()
	if m.state.RefreshToken() != refreshToken {
		// the session was ended or replaced while the exchange was in flight
		return nil, hmserrors.ErrNotAuthenticated
	}
	m.persist(ctx, renewed)
	m.state.Commit(renewed)
	log.Debug().Msg("session renewed")
	return renewed, nil
}

func (m *Manager) hasFailed(refreshToken string) bool {
	m.failedLock.Lock()
	defer m.failedLock.Unlock()
	return m.lastFailed == refreshToken
}

func (m *Manager) markFailed(refreshToken string) {
	m.failedLock.Lock()
	defer m.failedLock.Unlock()
	m.lastFailed = refreshToken
}

// tokenExpired prefers the stored expiry, then the JWT exp claim. A token with neither is
// assumed valid.
func (m *Manager) tokenExpired(c *credentials.Credentials) bool {
	now := m.nowTime()
	if !c.ExpiresAt.IsZero() {
		return c.Expired(now)
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.AccessToken, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return now.After(claims.ExpiresAt.Time)
}
