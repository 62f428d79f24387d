package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/royavalet/valet-site/internal/api/views"
	"github.com/royavalet/valet-site/internal/core/ports"
	"github.com/royavalet/valet-site/internal/core/service"
)

const (
	// ContextKeySession holds the ports.Session of the request.
	ContextKeySession = "session"
	// ContextKeyCSRF holds the CSRF token set by echo's CSRF middleware.
	ContextKeyCSRF = "csrf"
)

// SessionCookies issues and clears the session cookie. The cookie only carries
// an opaque id; the token itself never leaves the server.
type SessionCookies struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (sc SessionCookies) Set(c echo.Context, sessionID string) {
	c.SetCookie(&http.Cookie{
		Name:     sc.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(sc.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (sc SessionCookies) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session id of the request, or "" when the cookie is
// missing or does not hold a UUID.
func (sc SessionCookies) Read(c echo.Context) string {
	ck, err := c.Cookie(sc.Name)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(ck.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

// Session hydrates the auth context of the request from durable storage and
// makes it available to handlers and to the backend client.
func Session(provider ports.SessionProvider, cookies SessionCookies) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			sess := provider.Open(req.Context(), cookies.Read(c))

			c.Set(ContextKeySession, sess)
			if sess.ID() != "" {
				c.SetRequest(req.WithContext(service.ContextWithSessionID(req.Context(), sess.ID())))
			}
			return next(c)
		}
	}
}

// SessionFrom returns the session set by the Session middleware.
func SessionFrom(c echo.Context) (ports.Session, bool) {
	sess, ok := c.Get(ContextKeySession).(ports.Session)
	return sess, ok && sess != nil
}

// NewPage fills the fields every template needs from the request.
func NewPage(c echo.Context, title string, data any) views.Page {
	p := views.Page{
		Title: title,
		Path:  c.Request().URL.Path,
		Data:  data,
	}
	p.CSRF, _ = c.Get(ContextKeyCSRF).(string)
	if sess, ok := SessionFrom(c); ok && sess.IsAuthenticated() {
		p.User = sess.User()
	}
	return p
}
