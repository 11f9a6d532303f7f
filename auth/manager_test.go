package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-hms-client/apiclient"
	"github.com/jrsteele09/go-hms-client/auth"
	"github.com/jrsteele09/go-hms-client/authmodel"
	"github.com/jrsteele09/go-hms-client/authtransport"
	"github.com/jrsteele09/go-hms-client/credentials"
	"github.com/jrsteele09/go-hms-client/credentials/repofake"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/jrsteele09/go-hms-client/mockbackend"
	"github.com/jrsteele09/go-hms-client/notify"
	"github.com/jrsteele09/go-hms-client/users"
	"github.com/stretchr/testify/require"
)

const (
	testSecret     = "test-secret"
	testLoginRoute = "/auth/login"
)

// recordingNavigator remembers every route it was asked to go to
type recordingNavigator struct {
	lock   sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(_ context.Context, route string) string {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.routes = append(n.routes, route)
	return route
}

func (n *recordingNavigator) Routes() []string {
	n.lock.Lock()
	defer n.lock.Unlock()
	return append([]string(nil), n.routes...)
}

// testFixture holds all test dependencies
type testFixture struct {
	backend   *mockbackend.Server
	server    *httptest.Server
	store     *repofake.FakeCredentialStore
	notifier  *notify.Recorder
	navigator *recordingNavigator
	manager   *auth.Manager
	api       *apiclient.Client // protected API over the manager's pipeline
}

// setupTestFixture starts a mock backend and a manager pointed at it
func setupTestFixture(t *testing.T, options ...auth.ManagerOption) *testFixture {
	t.Helper()
	return setupTestFixtureWithStore(t, repofake.NewFakeCredentialStore(), options...)
}

func setupTestFixtureWithStore(t *testing.T, store *repofake.FakeCredentialStore, options ...auth.ManagerOption) *testFixture {
	t.Helper()

	backend, err := mockbackend.New(mockbackend.Config{Secret: testSecret})
	require.NoError(t, err)
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	f := &testFixture{
		backend:   backend,
		server:    server,
		store:     store,
		notifier:  &notify.Recorder{},
		navigator: &recordingNavigator{},
	}

	opts := append([]auth.ManagerOption{
		auth.WithNotifier(f.notifier),
		auth.WithNavigator(f.navigator),
		auth.WithLoginRoute(testLoginRoute),
	}, options...)
	f.manager, err = auth.NewManager(server.URL+"/api/auth", store, opts...)
	require.NoError(t, err)
	t.Cleanup(f.manager.Wait)

	f.api = apiclient.New(f.manager.HTTPClient(), server.URL+"/api")
	return f
}

func (f *testFixture) login(t *testing.T) *users.Profile {
	t.Helper()
	user, err := f.manager.Login(context.Background(), authmodel.LoginRequest{
		UsernameOrEmail: mockbackend.AdminEmail,
		Password:        mockbackend.AdminPassword,
	})
	require.NoError(t, err)
	return user
}

func (f *testFixture) listPatients(ctx context.Context) error {
	page := &apiclient.Page[map[string]any]{}
	return f.api.Get(ctx, "/patients", page)
}

func TestNewManager_RequiresStore(t *testing.T) {
	_, err := auth.NewManager("http://localhost/api/auth", nil)
	require.Error(t, err)
}

func TestLogin_CommitsSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := setupTestFixture(t, auth.WithNowTime(func() time.Time { return now }))

	user := f.login(t)
	require.Equal(t, mockbackend.AdminEmail, user.Email)
	require.True(t, f.manager.IsAuthenticated())
	require.False(t, f.manager.IsLoading())
	require.Equal(t, user.ID, f.manager.CurrentUser().ID)

	snap := f.manager.State().Snapshot()
	require.NotEmpty(t, snap.AccessToken)
	require.NotEmpty(t, snap.RefreshToken)
	require.Equal(t, now.Add(3600*time.Second), snap.ExpiresAt)

	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, snap.AccessToken, stored.AccessToken)
	require.Equal(t, snap.RefreshToken, stored.RefreshToken)
	require.Equal(t, snap.ExpiresAt.UnixMilli(), stored.ExpiresAt.UnixMilli())
	require.Equal(t, user.ID, stored.User.ID)

	require.True(t, f.manager.HasRole(mockbackend.RoleAdmin))
	require.True(t, f.manager.HasAnyRole("NURSE", mockbackend.RoleDoctor))
	require.False(t, f.manager.HasRole("NURSE"))
	require.False(t, f.manager.IsTokenExpired())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.manager.Login(context.Background(), authmodel.LoginRequest{
		UsernameOrEmail: mockbackend.AdminEmail,
		Password:        "wrong-password",
	})
	require.ErrorIs(t, err, auth.LoginFailedErr)
	require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))

	require.False(t, f.manager.IsAuthenticated())
	require.False(t, f.manager.IsLoading())
	require.Empty(t, f.manager.AccessToken())
	require.Equal(t, 0, f.store.Saves())
	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthLogin))

	toasts := f.notifier.Toasts()
	require.Len(t, toasts, 1)
	require.Equal(t, "Login Failed", toasts[0].Title)
	require.Equal(t, "Invalid username or password", toasts[0].Message)
}

func TestLogin_FallbackMessageWithoutDetail(t *testing.T) {
	f := setupTestFixture(t)
	f.server.Close()

	_, err := f.manager.Login(context.Background(), authmodel.LoginRequest{
		UsernameOrEmail: mockbackend.AdminEmail,
		Password:        mockbackend.AdminPassword,
	})
	require.Error(t, err)
	require.Equal(t, 1, f.notifier.Count("Login Failed"))
	require.Equal(t, "Invalid credentials. Please try again.", f.notifier.Toasts()[0].Message)
}

func TestLogin_ValidationFailsWithoutNetworkCall(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.manager.Login(context.Background(), authmodel.LoginRequest{UsernameOrEmail: "  "})
	require.ErrorIs(t, err, auth.InvalidLoginErr)
	require.ErrorIs(t, err, hmserrors.ErrInvalidRequest)
	require.Equal(t, 0, f.backend.Calls(mockbackend.RouteAuthLogin))
}

func TestLogin_StoreFailureKeepsSessionInMemory(t *testing.T) {
	f := setupTestFixture(t)
	f.store.FailSaves(errors.New("disk full"))

	f.login(t)
	require.True(t, f.manager.IsAuthenticated())
	require.NotEmpty(t, f.manager.AccessToken())
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)
	req := authmodel.RegisterRequest{
		Email:     "nurse@hms.local",
		Password:  "Nurse1234",
		FirstName: "Nina",
		LastName:  "Nurse",
	}

	resp, err := f.manager.Register(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Message)
	require.False(t, f.manager.IsAuthenticated())
	require.Equal(t, 0, f.store.Saves())
	require.Equal(t, 1, f.notifier.Count("Registration Successful"))

	_, err = f.manager.Register(context.Background(), req)
	require.ErrorIs(t, err, auth.RegistrationFailedErr)
	require.Equal(t, http.StatusConflict, apiclient.StatusCode(err))
	require.Equal(t, 1, f.notifier.Count("Registration Failed"))
}

func TestRegister_Validation(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.manager.Register(context.Background(), authmodel.RegisterRequest{
		Email:       "not-an-email",
		Password:    "short",
		FirstName:   "A",
		LastName:    "B",
		PhoneNumber: "12345",
	})
	require.ErrorIs(t, err, auth.InvalidRegisterErr)
	require.Contains(t, err.Error(), "email must be a valid email address")
	require.Contains(t, err.Error(), "password must be at least 8 characters")
	require.Contains(t, err.Error(), "phoneNumber must be an international phone number")
	require.Equal(t, 0, f.backend.Calls(mockbackend.RouteAuthRegister))
}

func TestRenewal_ReplaysWithNewToken(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	oldAccess := f.manager.AccessToken()
	oldRefresh := f.manager.RefreshToken()

	f.backend.ExpireAccessTokens()
	require.NoError(t, f.listPatients(context.Background()))

	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthRefreshToken))
	require.Equal(t, 2, f.backend.Calls("/api/patients"))
	newAccess := f.manager.AccessToken()
	require.NotEqual(t, oldAccess, newAccess)
	require.NotEqual(t, oldRefresh, f.manager.RefreshToken())
	require.Equal(t, "Bearer "+newAccess, f.backend.LastAuthorization("/api/patients"))

	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, newAccess, stored.AccessToken)
	require.NotNil(t, stored.User)
	require.Zero(t, f.notifier.Count("Session Expired"))
}

// renewingSessions runs beforeRetry just before the pipeline reads the tokens back after a 401
type renewingSessions struct {
	*auth.Manager
	reads       int
	beforeRetry func()
}

func (s *renewingSessions) Tokens() (string, string) {
	s.reads++
	if s.reads == 2 {
		s.beforeRetry()
	}
	return s.Manager.Tokens()
}

func TestRenewal_ReusesSessionRenewedBeforeRetry(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.backend.ExpireAccessTokens()

	sessions := &renewingSessions{Manager: f.manager}
	sessions.beforeRetry = func() {
		_, err := f.manager.Renew(context.Background(), f.manager.RefreshToken())
		require.NoError(t, err)
	}
	endpoints, err := authtransport.NewEndpoints(f.server.URL + "/api/auth")
	require.NoError(t, err)
	api := apiclient.New(&http.Client{Transport: authtransport.New(nil, sessions, endpoints)}, f.server.URL+"/api")

	page := &apiclient.Page[map[string]any]{}
	require.NoError(t, api.Get(context.Background(), "/patients", page))
	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthRefreshToken))
	require.Equal(t, 2, f.backend.Calls("/api/patients"))
	require.Equal(t, "Bearer "+f.manager.AccessToken(), f.backend.LastAuthorization("/api/patients"))
}

func TestManager_TokensComeFromOneSession(t *testing.T) {
	f := setupTestFixture(t)
	access, refresh := f.manager.Tokens()
	require.Empty(t, access)
	require.Empty(t, refresh)

	f.login(t)
	access, refresh = f.manager.Tokens()
	require.Equal(t, f.manager.AccessToken(), access)
	require.Equal(t, f.manager.RefreshToken(), refresh)
}

func TestRenewal_ConcurrentUnauthorizedShareOneRenewal(t *testing.T) {
	const requests = 8
	f := setupTestFixture(t)
	f.login(t)

	f.backend.ExpireAccessTokens()
	f.backend.SetRefreshDelay(200 * time.Millisecond)

	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.listPatients(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthRefreshToken))
	require.True(t, f.manager.IsAuthenticated())
}

func TestRenewal_RejectedEndsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.backend.ExpireAccessTokens()
	f.backend.RejectRefresh(true)

	err := f.listPatients(context.Background())
	require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))

	require.False(t, f.manager.IsAuthenticated())
	require.Empty(t, f.manager.AccessToken())
	require.Nil(t, f.manager.CurrentUser())
	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, stored.Empty())

	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthRefreshToken))
	require.Equal(t, 1, f.notifier.Count("Session Expired"))
	require.Zero(t, f.notifier.Count("Logged Out"))
	require.Contains(t, f.navigator.Routes(), testLoginRoute)
}

func TestRenewal_ConcurrentRejectionShowsOneToast(t *testing.T) {
	const requests = 6
	f := setupTestFixture(t)
	f.login(t)

	f.backend.ExpireAccessTokens()
	f.backend.RejectRefresh(true)
	f.backend.SetRefreshDelay(150 * time.Millisecond)

	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.listPatients(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
	}
	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthRefreshToken))
	require.Zero(t, f.notifier.Count("Logged Out"))
	require.Equal(t, 1, f.notifier.Count("Session Expired"))
	require.False(t, f.manager.IsAuthenticated())
}

func TestRenew_WithoutRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.manager.Renew(context.Background(), "")
	require.ErrorIs(t, err, hmserrors.ErrNoRefreshToken)
	require.Equal(t, 0, f.backend.Calls(mockbackend.RouteAuthRefreshToken))
}

func TestRenew_StaleRefreshTokenReusesCurrentSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	stale := f.manager.RefreshToken()

	renewed, err := f.manager.Renew(context.Background(), stale)
	require.NoError(t, err)

	again, err := f.manager.Renew(context.Background(), stale)
	require.NoError(t, err)
	require.Equal(t, renewed.AccessToken, again.AccessToken)
	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthRefreshToken))
}

func TestLogout_Idempotent(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.manager.Logout(context.Background())
	f.manager.Logout(context.Background())
	f.manager.Wait()

	require.False(t, f.manager.IsAuthenticated())
	require.Empty(t, f.manager.RefreshToken())
	require.Equal(t, 1, f.notifier.Count("Logged Out"))
	require.Equal(t, []string{testLoginRoute, testLoginRoute}, f.navigator.Routes())
	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthLogout))
	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, stored.Empty())
}

func TestLogout_Concurrent(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.manager.Logout(context.Background())
		}()
	}
	wg.Wait()
	f.manager.Wait()

	require.Equal(t, 1, f.notifier.Count("Logged Out"))
	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthLogout))
	require.Len(t, f.navigator.Routes(), 5)
}

func TestLogout_BackendFailureIgnored(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.backend.FailWith(mockbackend.RouteAuthLogout, http.StatusInternalServerError, "boom")

	f.manager.Logout(context.Background())
	f.manager.Wait()

	require.False(t, f.manager.IsAuthenticated())
	require.Equal(t, 1, f.notifier.Count("Logged Out"))
	require.Zero(t, f.notifier.Count("Error"))
}

func TestLogout_SendsBearerAndRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	access := f.manager.AccessToken()

	f.manager.Logout(context.Background())
	f.manager.Wait()
	require.Equal(t, "Bearer "+access, f.backend.LastAuthorization(mockbackend.RouteAuthLogout))
}

func TestFetchProfile(t *testing.T) {
	f := setupTestFixture(t)
	user := f.login(t)

	profile, err := f.manager.FetchProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, user.ID, profile.ID)
	require.True(t, f.manager.IsAuthenticated())
}

func TestFetchProfile_UnauthorizedLogsOut(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.backend.ExpireAccessTokens()
	f.backend.RejectRefresh(true)

	_, err := f.manager.FetchProfile(context.Background())
	require.ErrorIs(t, err, auth.ProfileUnavailableErr)
	require.False(t, f.manager.IsAuthenticated())
	require.Equal(t, 1, f.notifier.Count("Session Expired"))
}

func TestRestore(t *testing.T) {
	now := time.Now()
	user := &users.Profile{ID: "user-1", Email: "doc@hms.local"}

	tests := []struct {
		name          string
		stored        *credentials.Credentials
		authenticated bool
		hasToken      bool
	}{
		{
			name:   "nothing stored",
			stored: nil,
		},
		{
			name:          "valid stored session",
			stored:        &credentials.Credentials{AccessToken: "opaque", RefreshToken: "r", ExpiresAt: now.Add(time.Hour), User: user},
			authenticated: true,
			hasToken:      true,
		},
		{
			name:     "expired stored session is provisional",
			stored:   &credentials.Credentials{AccessToken: "opaque", RefreshToken: "r", ExpiresAt: now.Add(-time.Minute), User: user},
			hasToken: true,
		},
		{
			name:     "token without profile is provisional",
			stored:   &credentials.Credentials{AccessToken: "opaque", RefreshToken: "r"},
			hasToken: true,
		},
		{
			name:          "no expiry and opaque token is trusted",
			stored:        &credentials.Credentials{AccessToken: "opaque", RefreshToken: "r", User: user},
			authenticated: true,
			hasToken:      true,
		},
		{
			name:     "expired jwt without stored expiry",
			stored:   &credentials.Credentials{AccessToken: signedToken(t, now.Add(-time.Minute)), RefreshToken: "r", User: user},
			hasToken: true,
		},
		{
			name:          "live jwt without stored expiry",
			stored:        &credentials.Credentials{AccessToken: signedToken(t, now.Add(time.Hour)), RefreshToken: "r", User: user},
			authenticated: true,
			hasToken:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repofake.NewFakeCredentialStore()
			if tt.stored != nil {
				store = repofake.NewFakeCredentialStoreWith(tt.stored)
			}
			f := setupTestFixtureWithStore(t, store, auth.WithNowTime(func() time.Time { return now }))

			require.NoError(t, f.manager.Restore(context.Background()))
			require.Equal(t, tt.authenticated, f.manager.IsAuthenticated())
			require.Equal(t, tt.hasToken, f.manager.AccessToken() != "")
			if tt.authenticated {
				require.Equal(t, user.ID, f.manager.CurrentUser().ID)
			} else {
				require.Nil(t, f.manager.CurrentUser())
			}
		})
	}
}

func TestToken(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.manager.Token()
	require.ErrorIs(t, err, hmserrors.ErrNotAuthenticated)

	f.login(t)
	token, err := f.manager.Token()
	require.NoError(t, err)
	require.Equal(t, f.manager.AccessToken(), token.AccessToken)
	require.Equal(t, "Bearer", token.TokenType)
	require.True(t, token.Valid())
}

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	claims := jwtlib.RegisteredClaims{ExpiresAt: jwtlib.NewNumericDate(expiry)}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	return signed
}
