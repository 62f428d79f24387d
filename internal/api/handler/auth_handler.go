package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/royavalet/valet-site/internal/api/middleware"
	"github.com/royavalet/valet-site/internal/api/views"
	"github.com/royavalet/valet-site/internal/core/ports"
)

const (
	DashboardPath = "/admin/dashboard"
	LoginPath     = "/admin/login"
)

// ViewForgetter drops per-session view state.
type ViewForgetter interface {
	Forget(sessionID string)
}

type AuthHandler struct {
	provider ports.SessionProvider
	cookies  middleware.SessionCookies
	lists    ViewForgetter
	log      zerolog.Logger
}

func NewAuthHandler(provider ports.SessionProvider, cookies middleware.SessionCookies, lists ViewForgetter, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{provider: provider, cookies: cookies, lists: lists, log: log}
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	From     string `form:"from"`
}

// LoginView is the data of the login page.
type LoginView struct {
	Email  string
	From   string
	Errors map[string]string
}

// LoginPage renders the login form. A signed-in admin goes straight on.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	from := c.QueryParam("from")
	if sess, ok := middleware.SessionFrom(c); ok && sess.IsAdmin() {
		return c.Redirect(http.StatusFound, afterLogin(from))
	}
	return h.renderLogin(c, http.StatusOK, LoginView{From: from}, nil)
}

// Login signs in under a new session id and drops the previous session.
// A failed attempt re-renders the form with the backend's message.
func (h *AuthHandler) Login(c echo.Context) error {
	var f loginForm
	if err := c.Bind(&f); err != nil {
		return h.renderLogin(c, http.StatusBadRequest, LoginView{}, &views.Flash{Kind: views.FlashError, Message: msgBadForm})
	}
	f.Email = trimmed(f.Email)
	if !middleware.SafeLocalPath(f.From) {
		f.From = ""
	}

	if err := c.Validate(&f); err != nil {
		return h.renderLogin(c, http.StatusUnprocessableEntity, LoginView{Email: f.Email, From: f.From, Errors: FieldErrors(err)}, nil)
	}

	ctx := c.Request().Context()
	fresh := h.provider.Fresh(uuid.NewString())
	res := fresh.Login(ctx, f.Email, f.Password)
	if !res.Success {
		return h.renderLogin(c, loginStatus(res.Failure), LoginView{Email: f.Email, From: f.From},
			&views.Flash{Kind: views.FlashError, Message: res.Message})
	}

	if old := h.cookies.Read(c); old != "" && old != fresh.ID() {
		h.provider.Discard(ctx, old)
		h.lists.Forget(old)
	}
	h.cookies.Set(c, fresh.ID())
	if res.User != nil {
		h.log.Info().Str("user_id", res.User.ID).Msg("session started")
	}
	return c.Redirect(http.StatusSeeOther, afterLogin(f.From))
}

// Logout clears the session and sends the visitor to the login page.
func (h *AuthHandler) Logout(c echo.Context) error {
	if sess, ok := middleware.SessionFrom(c); ok {
		sess.Logout(c.Request().Context())
		h.lists.Forget(sess.ID())
	}
	h.cookies.Clear(c)
	return c.Redirect(http.StatusSeeOther, LoginPath)
}

func (h *AuthHandler) renderLogin(c echo.Context, code int, v LoginView, flash *views.Flash) error {
	p := middleware.NewPage(c, "Admin Login", v)
	p.Flash = flash
	return c.Render(code, "login", p)
}

// loginStatus is the response code of the login page after a failed attempt.
func loginStatus(f ports.LoginFailure) int {
	switch f {
	case ports.LoginUnavailable:
		return http.StatusServiceUnavailable
	case ports.LoginBackendError:
		return http.StatusBadGateway
	default:
		return http.StatusUnauthorized
	}
}

func afterLogin(from string) string {
	if middleware.SafeLocalPath(from) && !strings.HasPrefix(from, LoginPath) {
		return from
	}
	return DashboardPath
}
