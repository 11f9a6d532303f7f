package authtransport

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-hms-client/authmodel"
)

// Class says how the transport treats a request.
type Class int

const (
	// ClassProtected requests carry the bearer token and are renewed and replayed once on a 401
	ClassProtected Class = iota
	// ClassExempt requests (login, register, refresh-token) pass through untouched
	ClassExempt
	// ClassRevoke requests (logout) carry the bearer token but never trigger a renewal
	ClassRevoke
)

func (c Class) String() string {
	switch c {
	case ClassExempt:
		return "exempt"
	case ClassRevoke:
		return "revoke"
	default:
		return "protected"
	}
}

// Endpoints classifies request URLs against the auth base URL.
type Endpoints struct {
	host string
	base string // path prefix of the auth endpoints, without trailing slash
}

// NewEndpoints parses authBaseURL (e.g., "http://localhost:8081/api/auth").
func NewEndpoints(authBaseURL string) (Endpoints, error) {
	u, err := url.Parse(authBaseURL)
	if err != nil {
		return Endpoints{}, err
	}
	return Endpoints{host: u.Host, base: strings.TrimRight(u.Path, "/")}, nil
}

func (e Endpoints) Classify(u *url.URL) Class {
	if u == nil {
		return ClassProtected
	}
	if e.host != "" && u.Host != "" && !strings.EqualFold(u.Host, e.host) {
		return ClassProtected
	}
	path := strings.TrimRight(u.Path, "/")
	switch path {
	case e.base + authmodel.PathLogin, e.base + authmodel.PathRegister, e.base + authmodel.PathRefreshToken:
		return ClassExempt
	case e.base + authmodel.PathLogout:
		return ClassRevoke
	}
	return ClassProtected
}
