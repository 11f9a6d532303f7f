package config

import "time"

const (
	loginRouteKey    = "routes.login"
	landingRouteKey  = "routes.landing"
	toastDurationKey = "toast.duration"
)

type SessionConfig interface {
	GetLoginRoute() string
	GetLandingRoute() string
	GetToastDuration() time.Duration
}

type Session struct {
	values
}

var _ SessionConfig = Session{}

func (s Session) GetLoginRoute() string {
	return s.str(loginRouteKey, "/auth/login")
}

// GetLandingRoute is where authenticated users are sent when they open a public page
func (s Session) GetLandingRoute() string {
	return s.str(landingRouteKey, "/dashboard")
}

func (s Session) GetToastDuration() time.Duration {
	return s.duration(toastDurationKey, 5*time.Second)
}
