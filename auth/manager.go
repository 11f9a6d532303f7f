// Package auth owns the client session: it logs in, renews and ends sessions, persists
// credentials and exposes the current user to the rest of the application.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-hms-client/apiclient"
	"github.com/jrsteele09/go-hms-client/authmodel"
	"github.com/jrsteele09/go-hms-client/authtransport"
	"github.com/jrsteele09/go-hms-client/credentials"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/jrsteele09/go-hms-client/notify"
	"github.com/jrsteele09/go-hms-client/sessions"
	"github.com/jrsteele09/go-hms-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLoginRoute  = "/auth/login"
	defaultHTTPTimeout = 30 * time.Second
	revokeTimeout      = 10 * time.Second
)

// Navigator moves the application to another route and returns where it ended up.
type Navigator interface {
	Navigate(ctx context.Context, route string) string
}

// NavigatorFunc adapts a function to a Navigator
type NavigatorFunc func(ctx context.Context, route string) string

func (f NavigatorFunc) Navigate(ctx context.Context, route string) string {
	return f(ctx, route)
}

// Manager is the session manager. It is the single writer of the session state and of the
// credential store; every commit replaces both under one lock.
type Manager struct {
	state       *sessions.State
	store       credentials.Store
	notifier    notify.Notifier
	navigator   Navigator
	validator   *Validator
	endpoints   authtransport.Endpoints
	authBaseURL string
	loginRoute  string
	base        http.RoundTripper
	timeout     time.Duration
	nowTime     func() time.Time

	httpClient *http.Client      // authorized client, every request goes through the pipeline
	api        *apiclient.Client // auth endpoints over httpClient
	rawClient  *http.Client      // bypasses the pipeline, used to revoke on logout

	commitLock sync.Mutex
	renewals   singleflight.Group

	failedLock sync.Mutex
	lastFailed string // refresh token whose renewal was rejected

	pending sync.WaitGroup // in-flight revocations
}

var (
	_ authtransport.Sessions = (*Manager)(nil)
	_ sessions.Reader        = (*Manager)(nil)
	_ oauth2.TokenSource     = (*Manager)(nil)
)

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithNotifier sets where toasts are shown. The default discards them.
func WithNotifier(notifier notify.Notifier) ManagerOption {
	return func(m *Manager) {
		m.notifier = notifier
	}
}

// WithNavigator sets how the manager redirects after logout.
func WithNavigator(navigator Navigator) ManagerOption {
	return func(m *Manager) {
		m.navigator = navigator
	}
}

// WithLoginRoute overrides the route logout navigates to
func WithLoginRoute(route string) ManagerOption {
	return func(m *Manager) {
		m.loginRoute = route
	}
}

// WithBaseTransport sets the transport underneath the authorization pipeline.
func WithBaseTransport(base http.RoundTripper) ManagerOption {
	return func(m *Manager) {
		m.base = base
	}
}

// WithHTTPTimeout bounds every request the manager's clients send
func WithHTTPTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithState shares an existing session state instead of creating a new one
func WithState(state *sessions.State) ManagerOption {
	return func(m *Manager) {
		m.state = state
	}
}

// NewManager creates a session manager for the auth endpoints under authBaseURL.
// Call Restore to pick up a session persisted by an earlier run.
func NewManager(authBaseURL string, store credentials.Store, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] credential store is required")
	}
	authBaseURL = strings.TrimRight(authBaseURL, "/")
	endpoints, err := authtransport.NewEndpoints(authBaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewManager] auth base url")
	}

	m := &Manager{
		store:       store,
		notifier:    notify.Discard{},
		validator:   NewValidator(),
		endpoints:   endpoints,
		authBaseURL: authBaseURL,
		loginRoute:  defaultLoginRoute,
		base:        http.DefaultTransport,
		timeout:     defaultHTTPTimeout,
		nowTime:     time.Now,
	}

	for _, opt := range options {
		opt(m)
	}
	if m.state == nil {
		m.state = sessions.NewState()
	}

	m.httpClient = &http.Client{
		Transport: authtransport.New(m.base, m, endpoints),
		Timeout:   m.timeout,
	}
	m.rawClient = &http.Client{Transport: m.base, Timeout: m.timeout}
	m.api = apiclient.New(m.httpClient, authBaseURL)
	return m, nil
}

// HTTPClient returns the authorized client. Requests sent with it carry the bearer token and
// are renewed and replayed once on 401.
func (m *Manager) HTTPClient() *http.Client {
	return m.httpClient
}

// State returns the session state the manager writes to.
func (m *Manager) State() *sessions.State {
	return m.state
}

// Restore seeds the session from the credential store. A stored session with a profile and an
// access token that has not visibly expired is trusted until the backend says otherwise;
// anything else is kept only as a provisional token for the guards to verify.
func (m *Manager) Restore(ctx context.Context) error {
	stored, err := m.store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "[Manager.Restore] load credentials")
	}
	if stored.Empty() || stored.AccessToken == "" {
		return nil
	}

	authenticated := stored.User != nil && !m.tokenExpired(stored)
	m.commitLock.Lock()
	m.state.Restore(stored, authenticated)
	m.commitLock.Unlock()

	log.Debug().Bool("authenticated", authenticated).Msg("session restored")
	return nil
}

// Login exchanges the credentials for a session and commits it.
func (m *Manager) Login(ctx context.Context, req authmodel.LoginRequest) (*users.Profile, error) {
	if err := m.validator.ValidateLoginRequest(req); err != nil {
		return nil, errors.Wrap(err, "[Manager.Login]")
	}

	m.state.SetLoading(true)
	resp := &authmodel.AuthResponse{}
	if err := m.api.Post(ctx, authmodel.PathLogin, req, resp); err != nil {
		m.state.SetLoading(false)
		m.notifier.Show(notify.Toast{
			Type:    notify.ToastError,
			Title:   "Login Failed",
			Message: detailOr(err, "Invalid credentials. Please try again."),
		})
		return nil, errors.Wrap(fmt.Errorf("%w: %w", LoginFailedErr, err), "[Manager.Login]")
	}

	creds := m.credentialsFrom(resp)
	m.commit(ctx, creds)
	log.Info().Str("user", userID(creds.User)).Msg("logged in")
	return creds.User.Clone(), nil
}

// Register creates an account. It does not establish a session.
func (m *Manager) Register(ctx context.Context, req authmodel.RegisterRequest) (*authmodel.MessageResponse, error) {
	if err := m.validator.ValidateRegisterRequest(req); err != nil {
		return nil, errors.Wrap(err, "[Manager.Register]")
	}

	m.state.SetLoading(true)
	defer m.state.SetLoading(false)

	resp := &authmodel.MessageResponse{}
	if err := m.api.Post(ctx, authmodel.PathRegister, req, resp); err != nil {
		m.notifier.Show(notify.Toast{
			Type:    notify.ToastError,
			Title:   "Registration Failed",
			Message: detailOr(err, "Registration failed. Please try again."),
		})
		return nil, errors.Wrap(fmt.Errorf("%w: %w", RegistrationFailedErr, err), "[Manager.Register]")
	}

	m.notifier.Show(notify.Toast{
		Type:    notify.ToastSuccess,
		Title:   "Registration Successful",
		Message: resp.Message,
	})
	return resp, nil
}

// Logout ends the session. Local state is always cleared and the application is sent to the
// login route; the backend is told to revoke the refresh token in the background and its
// answer is ignored. Calling Logout without a session only redirects.
func (m *Manager) Logout(ctx context.Context) {
	if m.endSession(ctx) {
		m.notifier.Show(notify.Toast{
			Type:    notify.ToastInfo,
			Title:   "Logged Out",
			Message: "You have been successfully logged out.",
		})
	}
	m.navigate(ctx, m.loginRoute)
}

// Wait blocks until background revocations have finished.
func (m *Manager) Wait() {
	m.pending.Wait()
}

// FetchProfile loads the current user from the backend and, on success, confirms the session.
// A 401 that survives the pipeline's renewal ends the session.
func (m *Manager) FetchProfile(ctx context.Context) (*users.Profile, error) {
	profile := &users.Profile{}
	if err := m.api.Get(ctx, authmodel.PathMe, profile); err != nil {
		if apiclient.StatusCode(err) == http.StatusUnauthorized {
			m.Logout(ctx)
		}
		return nil, errors.Wrap(fmt.Errorf("%w: %w", ProfileUnavailableErr, err), "[Manager.FetchProfile]")
	}

	m.commitLock.Lock()
	defer m.commitLock.Unlock()
	current := m.state.Credentials()
	if current == nil {
		// logged out while the request was in flight
		return nil, errors.Wrap(hmserrors.ErrNotAuthenticated, "[Manager.FetchProfile]")
	}
	current.User = profile
	m.persist(ctx, current)
	m.state.Commit(current)
	return profile.Clone(), nil
}

// Token implements oauth2.TokenSource over the current session.
func (m *Manager) Token() (*oauth2.Token, error) {
	current := m.state.Credentials()
	if current == nil || current.AccessToken == "" {
		return nil, hmserrors.ErrNotAuthenticated
	}
	return current.Token(), nil
}

func (m *Manager) CurrentUser() *users.Profile {
	return m.state.CurrentUser()
}

func (m *Manager) IsAuthenticated() bool {
	return m.state.IsAuthenticated()
}

func (m *Manager) IsLoading() bool {
	return m.state.IsLoading()
}

func (m *Manager) AccessToken() string {
	return m.state.AccessToken()
}

func (m *Manager) RefreshToken() string {
	return m.state.RefreshToken()
}

// Tokens returns the current access and refresh token from a single snapshot.
func (m *Manager) Tokens() (accessToken, refreshToken string) {
	snap := m.state.Snapshot()
	return snap.AccessToken, snap.RefreshToken
}

// HasRole reports whether the current user holds role.
func (m *Manager) HasRole(role string) bool {
	return m.state.CurrentUser().HasRole(role)
}

func (m *Manager) HasAnyRole(roles ...string) bool {
	return m.state.CurrentUser().HasAnyRole(roles...)
}

// IsTokenExpired reports whether the access token is missing or past its expiry.
func (m *Manager) IsTokenExpired() bool {
	current := m.state.Credentials()
	if current == nil || current.AccessToken == "" {
		return true
	}
	return m.tokenExpired(current)
}

// commit replaces the session in the store and in memory under one lock.
func (m *Manager) commit(ctx context.Context, c *credentials.Credentials) {
	m.commitLock.Lock()
	defer m.commitLock.Unlock()
	m.persist(ctx, c)
	m.state.Commit(c)
}

// persist writes c to the store. A failing store only costs durability across restarts,
// the in-memory session stays usable.
func (m *Manager) persist(ctx context.Context, c *credentials.Credentials) {
	if err := m.store.Save(context.WithoutCancel(ctx), c); err != nil {
		log.Err(err).Msg("failed to persist session")
	}
}

// endSession clears the state and the store and starts revoking the refresh token.
// It returns false when there was no session to end.
func (m *Manager) endSession(ctx context.Context) bool {
	m.commitLock.Lock()
	previous := m.state.Credentials()
	cleared := m.state.Clear()
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		log.Err(err).Msg("failed to clear stored session")
	}
	m.commitLock.Unlock()

	if previous != nil && previous.RefreshToken != "" {
		m.revoke(previous)
	}
	return cleared
}

// revoke posts the refresh token to the logout endpoint in the background.
func (m *Manager) revoke(previous *credentials.Credentials) {
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), revokeTimeout)
		defer cancel()

		api := apiclient.New(m.rawClient, m.authBaseURL, apiclient.WithBearer(previous.AccessToken))
		req := authmodel.LogoutRequest{RefreshToken: previous.RefreshToken}
		if err := api.Post(ctx, authmodel.PathLogout, req, nil); err != nil {
			log.Debug().Err(err).Msg("logout not acknowledged by backend")
		}
	}()
}

func (m *Manager) navigate(ctx context.Context, route string) {
	if m.navigator == nil {
		return
	}
	m.navigator.Navigate(ctx, route)
}

func (m *Manager) credentialsFrom(resp *authmodel.AuthResponse) *credentials.Credentials {
	return &credentials.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.Expiry(m.nowTime()),
		User:         resp.User,
	}
}

func detailOr(err error, fallback string) string {
	var apiErr *apiclient.APIError
	if hmserrors.As(err, &apiErr) && apiErr.Detail() != "" {
		return apiErr.Detail()
	}
	return fallback
}

func userID(user *users.Profile) string {
	if user == nil {
		return ""
	}
	return user.ID
}
