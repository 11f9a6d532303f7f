package config

import (
	"strings"
	"time"
)

const (
	apiBaseURLKey  = "api.baseurl"
	apiTimeoutKey  = "api.timeout"
	apiAuthPathKey = "api.authpath"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetAuthBaseURL() string
	GetHTTPTimeout() time.Duration
}

type API struct {
	values
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the REST backend root (e.g., "http://localhost:8081/api")
func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(a.str(apiBaseURLKey, "http://localhost:8081/api"), "/")
}

// GetAuthBaseURL returns the base URL the auth endpoints hang off
func (a API) GetAuthBaseURL() string {
	return a.GetAPIBaseURL() + "/" + strings.Trim(a.str(apiAuthPathKey, "auth"), "/")
}

func (a API) GetHTTPTimeout() time.Duration {
	return a.duration(apiTimeoutKey, 30*time.Second)
}
