package guards

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

const maxRedirects = 8

// Route is one entry of the route table. Segments starting with ':' match any value.
type Route struct {
	Pattern string
	Guard   Guard // nil admits everyone
}

// Router resolves navigation targets against the route table, evaluates their guards and
// follows redirects. Guards run without the router's lock held, so a guard may navigate.
type Router struct {
	routes   []Route
	fallback string

	lock    sync.RWMutex
	current string
}

// RouterConfig names the routes the HMS table is built around
type RouterConfig struct {
	LoginRoute   string
	LandingRoute string
}

// NewRouter builds the HMS route table: the landing page and auth pages are public, the
// clinical pages require a session, and anything else falls back to the landing route.
func NewRouter(sessions Sessions, cfg RouterConfig) *Router {
	if cfg.LoginRoute == "" {
		cfg.LoginRoute = "/auth/login"
	}
	if cfg.LandingRoute == "" {
		cfg.LandingRoute = "/dashboard"
	}
	public := NewPublicGuard(sessions, cfg.LandingRoute)
	protected := NewProtectedGuard(sessions, cfg.LoginRoute)

	return NewRouterWithRoutes(cfg.LandingRoute,
		Route{Pattern: "/public", Guard: public},
		Route{Pattern: "/auth/login", Guard: public},
		Route{Pattern: "/auth/register", Guard: public},
		Route{Pattern: "/dashboard", Guard: protected},
		Route{Pattern: "/profile", Guard: protected},
		Route{Pattern: "/settings", Guard: protected},
		Route{Pattern: "/patients", Guard: protected},
		Route{Pattern: "/patients/register", Guard: protected},
		Route{Pattern: "/patients/:uuid", Guard: protected},
		Route{Pattern: "/opd/queue", Guard: protected},
		Route{Pattern: "/visits", Guard: protected},
		Route{Pattern: "/visits/register", Guard: protected},
	)
}

// NewRouterWithRoutes creates a router over routes; unmatched targets go to fallback.
func NewRouterWithRoutes(fallback string, routes ...Route) *Router {
	return &Router{routes: routes, fallback: fallback}
}

// Navigate moves to target, or wherever its guards redirect to, and returns the route entered.
// If redirects do not settle the current route is kept.
func (r *Router) Navigate(ctx context.Context, target string) string {
	for range maxRedirects {
		target = normalizeRoute(target)
		route, ok := r.Match(target)
		if !ok {
			log.Debug().Str("target", target).Str("fallback", r.fallback).Msg("unknown route")
			target = r.fallback
			continue
		}
		if route.Guard != nil {
			decision := route.Guard.CanEnter(ctx, target)
			if !decision.Allowed {
				log.Debug().Str("target", target).Str("redirect", decision.Redirect).Msg("navigation redirected")
				target = decision.Redirect
				continue
			}
		}
		r.lock.Lock()
		r.current = target
		r.lock.Unlock()
		return target
	}

	log.Warn().Str("target", target).Msg("navigation redirect loop")
	return r.Current()
}

// Current returns the route last entered
func (r *Router) Current() string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.current
}

// Match finds the route for target, ignoring any query string. Routes are tried in table order,
// so literal routes must precede parameterised siblings. The empty path matches nothing.
func (r *Router) Match(target string) (Route, bool) {
	path, _, _ := strings.Cut(target, "?")
	path = strings.TrimRight(path, "/")
	if path == "" {
		return Route{}, false
	}
	for _, route := range r.routes {
		if matchPattern(route.Pattern, path) {
			return route, true
		}
	}
	return Route{}, false
}

// normalizeRoute drops trailing slashes from the path of target and keeps its query string
func normalizeRoute(target string) string {
	path, query, hasQuery := strings.Cut(target, "?")
	path = strings.TrimRight(path, "/")
	if hasQuery {
		return path + "?" + query
	}
	return path
}

func matchPattern(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if strings.HasPrefix(want[i], ":") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if want[i] != got[i] {
			return false
		}
	}
	return true
}
