// Package guards decides whether a route may be entered given the current session.
package guards

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-hms-client/users"
	"github.com/rs/zerolog/log"
)

// Sessions is the part of the session manager the guards consult.
type Sessions interface {
	IsAuthenticated() bool
	AccessToken() string
	FetchProfile(ctx context.Context) (*users.Profile, error)
}

// Decision is the outcome of a guard. A denied decision carries the route to go to instead.
type Decision struct {
	Allowed  bool
	Redirect string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func RedirectTo(route string) Decision {
	return Decision{Redirect: route}
}

// Guard is evaluated before a route is entered.
type Guard interface {
	CanEnter(ctx context.Context, target string) Decision
}

// GuardFunc adapts a function to a Guard
type GuardFunc func(ctx context.Context, target string) Decision

func (f GuardFunc) CanEnter(ctx context.Context, target string) Decision {
	return f(ctx, target)
}

// ProtectedGuard admits authenticated sessions. A stored but unverified token is checked
// against the backend first; everything else is sent to the login route with a returnUrl.
type ProtectedGuard struct {
	sessions   Sessions
	loginRoute string
}

func NewProtectedGuard(sessions Sessions, loginRoute string) *ProtectedGuard {
	return &ProtectedGuard{sessions: sessions, loginRoute: loginRoute}
}

func (g *ProtectedGuard) CanEnter(ctx context.Context, target string) Decision {
	if g.sessions.IsAuthenticated() {
		return Allow()
	}
	if g.sessions.AccessToken() != "" {
		_, err := g.sessions.FetchProfile(ctx)
		if err == nil {
			return Allow()
		}
		log.Debug().Err(err).Str("target", target).Msg("stored session rejected")
	}
	return RedirectTo(LoginRedirect(g.loginRoute, target))
}

// PublicGuard keeps authenticated sessions out of the public pages (landing, login, register).
type PublicGuard struct {
	sessions     Sessions
	landingRoute string
}

func NewPublicGuard(sessions Sessions, landingRoute string) *PublicGuard {
	return &PublicGuard{sessions: sessions, landingRoute: landingRoute}
}

func (g *PublicGuard) CanEnter(_ context.Context, _ string) Decision {
	if g.sessions.IsAuthenticated() {
		return RedirectTo(g.landingRoute)
	}
	return Allow()
}

// LoginRedirect builds the login route carrying target as returnUrl.
func LoginRedirect(loginRoute, target string) string {
	if target == "" {
		return loginRoute
	}
	return loginRoute + "?" + url.Values{"returnUrl": {target}}.Encode()
}

// ReturnURL extracts the returnUrl a login route was entered with, or "".
func ReturnURL(route string) string {
	u, err := url.Parse(route)
	if err != nil {
		return ""
	}
	return u.Query().Get("returnUrl")
}
