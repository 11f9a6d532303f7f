// Package app wires the session client together: configuration, credential store, session
// manager, router and the feature services.
package app

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-hms-client/apiclient"
	"github.com/jrsteele09/go-hms-client/auth"
	"github.com/jrsteele09/go-hms-client/credentials"
	"github.com/jrsteele09/go-hms-client/guards"
	"github.com/jrsteele09/go-hms-client/internal/config"
	"github.com/jrsteele09/go-hms-client/notify"
	"github.com/jrsteele09/go-hms-client/patients"
	"github.com/jrsteele09/go-hms-client/visits"
	"github.com/pkg/errors"
)

type App struct {
	Config   config.Config
	Notifier *notify.Service
	Sessions *auth.Manager
	Router   *guards.Router
	API      *apiclient.Client
	Patients *patients.Service
	Visits   *visits.Service

	closeStore func() error
}

// Option customises how the application is assembled.
type Option func(*options)

type options struct {
	store credentials.Store
	base  http.RoundTripper
}

// WithStore uses store instead of the configured backend
func WithStore(store credentials.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithBaseTransport sends every request through base (primarily for testing)
func WithBaseTransport(base http.RoundTripper) Option {
	return func(o *options) {
		o.base = base
	}
}

// New assembles the application and restores any persisted session.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config:     cfg,
		Notifier:   notify.NewService(notify.WithDefaultDuration(cfg.GetToastDuration())),
		closeStore: func() error { return nil },
	}

	store := o.store
	if store == nil {
		var err error
		store, a.closeStore, err = NewStore(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "[app.New]")
		}
	}

	// the router is built after the manager it guards with, so the manager navigates through a closure
	navigator := auth.NavigatorFunc(func(ctx context.Context, route string) string {
		return a.Router.Navigate(ctx, route)
	})

	manager, err := auth.NewManager(cfg.GetAuthBaseURL(), store,
		auth.WithNotifier(a.Notifier),
		auth.WithNavigator(navigator),
		auth.WithLoginRoute(cfg.GetLoginRoute()),
		auth.WithBaseTransport(o.base),
		auth.WithHTTPTimeout(cfg.GetHTTPTimeout()),
	)
	if err != nil {
		_ = a.closeStore()
		return nil, errors.Wrap(err, "[app.New]")
	}
	a.Sessions = manager
	a.Router = guards.NewRouter(manager, guards.RouterConfig{
		LoginRoute:   cfg.GetLoginRoute(),
		LandingRoute: cfg.GetLandingRoute(),
	})
	a.API = apiclient.New(manager.HTTPClient(), cfg.GetAPIBaseURL(),
		apiclient.WithPresenter(a.Notifier, a.Router, cfg.GetLoginRoute()))
	a.Patients = patients.NewService(a.API)
	a.Visits = visits.NewService(a.API)

	if err := manager.Restore(ctx); err != nil {
		_ = a.closeStore()
		return nil, errors.Wrap(err, "[app.New]")
	}
	return a, nil
}

// Close waits for background logout calls, stops toast timers and releases the credential store.
func (a *App) Close() error {
	a.Sessions.Wait()
	a.Notifier.DismissAll()
	return a.closeStore()
}
