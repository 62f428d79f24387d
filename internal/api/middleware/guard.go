package middleware

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/royavalet/valet-site/internal/pkg/metrics"
)

// GuardState is the outcome of evaluating a protected route.
type GuardState string

const (
	StateLoading         GuardState = "loading"
	StateUnauthenticated GuardState = "unauthenticated"
	StateForbidden       GuardState = "forbidden"
	StateAuthorized      GuardState = "authorized"
)

const loadingRetryAfter = 2

// Authorizer is the part of a session the guard looks at.
type Authorizer interface {
	IsLoading() bool
	IsAuthenticated() bool
	IsAdmin() bool
}

// Decide evaluates loading first, then authentication, then the admin role.
func Decide(a Authorizer, requireAdmin bool) GuardState {
	switch {
	case a == nil:
		return StateUnauthenticated
	case a.IsLoading():
		return StateLoading
	case !a.IsAuthenticated():
		return StateUnauthenticated
	case requireAdmin && !a.IsAdmin():
		return StateForbidden
	default:
		return StateAuthorized
	}
}

type GuardOptions struct {
	RequireAdmin bool
	LoginPath    string
}

// Guard protects a route group. A loading session renders the loading page
// and a non-admin renders the access-denied page; neither redirects. Only an
// unauthenticated visitor is sent to the login page, carrying the requested
// location in ?from=.
func Guard(opts GuardOptions) echo.MiddlewareFunc {
	if opts.LoginPath == "" {
		opts.LoginPath = "/admin/login"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var a Authorizer
			if sess, ok := SessionFrom(c); ok {
				a = sess
			}

			state := Decide(a, opts.RequireAdmin)
			metrics.GuardDecisionsTotal.WithLabelValues(string(state)).Inc()

			switch state {
			case StateLoading:
				c.Response().Header().Set("Retry-After", strconv.Itoa(loadingRetryAfter))
				c.Response().Header().Set("Cache-Control", "no-store")
				return c.Render(http.StatusServiceUnavailable, "loading", NewPage(c, "Loading", loadingData{RetryAfter: loadingRetryAfter}))
			case StateUnauthenticated:
				return c.Redirect(redirectStatus(c.Request().Method), LoginURL(opts.LoginPath, c.Request().URL.RequestURI()))
			case StateForbidden:
				return c.Render(http.StatusForbidden, "forbidden", NewPage(c, "Access Denied", nil))
			}
			return next(c)
		}
	}
}

type loadingData struct {
	RetryAfter int
}

// LoginURL builds the login location preserving from.
func LoginURL(loginPath, from string) string {
	if !SafeLocalPath(from) {
		return loginPath
	}
	return loginPath + "?from=" + url.QueryEscape(from)
}

// SafeLocalPath reports whether p is a path on this site: it must start with
// a single slash and carry no scheme or host.
func SafeLocalPath(p string) bool {
	if len(p) == 0 || p[0] != '/' {
		return false
	}
	if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// redirectStatus keeps the method for reads and switches to GET for writes.
func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
