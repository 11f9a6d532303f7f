package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-hms-client/apiclient"
	"github.com/jrsteele09/go-hms-client/authmodel"
	"github.com/jrsteele09/go-hms-client/credentials"
	"github.com/jrsteele09/go-hms-client/internal/app"
	"github.com/jrsteele09/go-hms-client/internal/config"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/jrsteele09/go-hms-client/mockbackend"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	backend *mockbackend.Server
	cfg     config.Config
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	backend, err := mockbackend.New(mockbackend.Config{Secret: "test-secret"})
	require.NoError(t, err)
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	cfg, err := config.New(config.WithConfigFile(""), config.WithEnvFile(""), config.WithOverrides(map[string]any{
		"api.baseurl":   server.URL + "/api",
		"store.backend": config.StoreBackendMemory,
	}))
	require.NoError(t, err)
	return &testFixture{backend: backend, cfg: cfg}
}

func (f *testFixture) newApp(t *testing.T, opts ...app.Option) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), f.cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func login(t *testing.T, a *app.App) {
	t.Helper()
	_, err := a.Sessions.Login(context.Background(), authmodel.LoginRequest{
		UsernameOrEmail: mockbackend.AdminEmail,
		Password:        mockbackend.AdminPassword,
	})
	require.NoError(t, err)
}

func TestSessionLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	a := f.newApp(t)
	ctx := context.Background()

	require.Equal(t, "/auth/login?returnUrl=%2Fpatients", a.Router.Navigate(ctx, "/patients"))

	login(t, a)
	require.Equal(t, "/patients", a.Router.Navigate(ctx, "/patients"))
	require.Equal(t, "/dashboard", a.Router.Navigate(ctx, "/auth/login"))

	page, err := a.Patients.List(ctx, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, page.TotalElements)

	// the access token lapses and is renewed transparently
	f.backend.ExpireAccessTokens()
	queue, err := a.Visits.Queue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthRefreshToken))

	a.Sessions.Logout(ctx)
	require.Equal(t, "/auth/login", a.Router.Current())
	require.Equal(t, "/auth/login?returnUrl=%2Fopd%2Fqueue", a.Router.Navigate(ctx, "/opd/queue"))
}

func TestRenewalFailureShowsOneToast(t *testing.T) {
	const requests = 4
	f := setupTestFixture(t)
	a := f.newApp(t)
	ctx := context.Background()
	login(t, a)

	f.backend.ExpireAccessTokens()
	f.backend.RejectRefresh(true)
	f.backend.SetRefreshDelay(100 * time.Millisecond)

	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Patients.List(ctx, 0, 0)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.ErrorIs(t, err, hmserrors.ErrUnauthorized)
		require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
	}
	require.False(t, a.Sessions.IsAuthenticated())

	toasts := a.Notifier.Toasts()
	require.Len(t, toasts, 1)
	require.Equal(t, "Session Expired", toasts[0].Title)
	require.Equal(t, 1, f.backend.Calls(mockbackend.RouteAuthRefreshToken))
	require.Equal(t, "/auth/login?returnUrl=%2Fpatients", a.Router.Navigate(ctx, "/patients"))
}

func TestRestoresPersistedSession(t *testing.T) {
	f := setupTestFixture(t)
	store := credentials.NewMemoryStore()

	first := f.newApp(t, app.WithStore(store))
	login(t, first)

	second := f.newApp(t, app.WithStore(store))
	require.True(t, second.Sessions.IsAuthenticated())
	require.Equal(t, first.Sessions.AccessToken(), second.Sessions.AccessToken())
	require.Equal(t, "/profile", second.Router.Navigate(context.Background(), "/profile"))
}

func TestNewStore(t *testing.T) {
	cfg, err := config.New(config.WithConfigFile(""), config.WithEnvFile(""),
		config.WithOverrides(map[string]any{"store.backend": "floppy"}))
	require.NoError(t, err)

	_, _, err = app.NewStore(cfg)
	require.ErrorIs(t, err, hmserrors.ErrUnknownBackend)

	cfg, err = config.New(config.WithConfigFile(""), config.WithEnvFile(""),
		config.WithOverrides(map[string]any{"store.backend": config.StoreBackendFile, "store.path": t.TempDir() + "/creds.bin"}))
	require.NoError(t, err)
	store, closeStore, err := app.NewStore(cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NoError(t, closeStore())
}
