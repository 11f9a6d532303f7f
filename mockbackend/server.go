// Package mockbackend is an in-memory HMS backend: the auth endpoints plus a small patient and
// visit surface. It backs the tests and the hms-mockserver command.
package mockbackend

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	defaultIssuer     = "hms-mock"
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour

	// Seeded administrator
	AdminEmail    = "admin@hms.local"
	AdminPassword = "Admin123!"
)

// Config configures the backend. Secret is required.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Server struct {
	echo     *echo.Echo
	accounts *Accounts
	issuer   *Issuer
	clinic   *Clinic
	nowTime  func() time.Time

	lock          sync.Mutex
	calls         map[string]int    // request path to count
	authorization map[string]string // request path to last Authorization header
	refreshDelay  time.Duration
	rejectRefresh bool
	failures      map[string]injectedFailure
}

type injectedFailure struct {
	status int
	detail string
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(cfg Config, options ...ServerOption) (*Server, error) {
	if cfg.Secret == "" {
		return nil, errSecretRequired
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}

	s := &Server{
		echo:          echo.New(),
		nowTime:       time.Now,
		calls:         make(map[string]int),
		authorization: make(map[string]string),
		failures:      make(map[string]injectedFailure),
	}
	for _, opt := range options {
		opt(s)
	}

	s.accounts = NewAccounts(s.nowTime)
	s.issuer = NewIssuer(cfg.Secret, cfg.Issuer, cfg.AccessTTL, cfg.RefreshTTL, s.nowTime)
	s.clinic = NewClinic(s.nowTime)
	if err := s.seed(); err != nil {
		return nil, err
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Validator = &requestValidator{validate: validator.New()}
	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Accounts exposes the account repository, e.g. to add users in tests
func (s *Server) Accounts() *Accounts {
	return s.accounts
}

func (s *Server) Issuer() *Issuer {
	return s.issuer
}

// Calls returns how many requests reached path, e.g. "/api/auth/refresh-token".
func (s *Server) Calls(path string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls[path]
}

// LastAuthorization returns the Authorization header of the latest request to path
func (s *Server) LastAuthorization(path string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.authorization[path]
}

// ExpireAccessTokens revokes every access token issued so far, so the next protected request
// is rejected with 401 until the client renews.
func (s *Server) ExpireAccessTokens() {
	n := s.issuer.RevokeAllAccessTokens()
	log.Debug().Int("tokens", n).Msg("mock backend expired access tokens")
}

// SetRefreshDelay holds every refresh-token response for d
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.refreshDelay = d
}

// RejectRefresh makes the refresh endpoint answer 401 while reject is true
func (s *Server) RejectRefresh(reject bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.rejectRefresh = reject
}

// FailWith answers every request to path with status and detail until cleared with status 0.
func (s *Server) FailWith(path string, status int, detail string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = injectedFailure{status: status, detail: detail}
}

func (s *Server) seed() error {
	if _, err := s.accounts.Create(AdminEmail, AdminPassword, "System", "Administrator", "", RoleAdmin, RoleDoctor); err != nil {
		return err
	}
	s.clinic.Seed()
	return nil
}

// record counts the request and applies injected failures
func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		s.lock.Lock()
		s.calls[path]++
		s.authorization[path] = c.Request().Header.Get(echo.HeaderAuthorization)
		failure, fail := s.failures[path]
		s.lock.Unlock()

		if fail {
			return problem(failure.status, failure.detail)
		}
		return next(c)
	}
}

func (s *Server) refreshBehaviour() (time.Duration, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.refreshDelay, s.rejectRefresh
}
