package middleware

import (
	"context"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/royavalet/valet-site/internal/api/views"
	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
)

type stubSession struct {
	id      string
	loading bool
	user    *domain.User
}

func (s *stubSession) ID() string            { return s.id }
func (s *stubSession) IsLoading() bool       { return s.loading }
func (s *stubSession) IsAuthenticated() bool { return !s.loading && s.user != nil }
func (s *stubSession) IsAdmin() bool         { return s.IsAuthenticated() && s.user.IsAdmin() }
func (s *stubSession) User() *domain.User    { return s.user }
func (s *stubSession) Login(context.Context, string, string) ports.LoginResult {
	return ports.LoginResult{}
}
func (s *stubSession) Logout(context.Context)            { s.user = nil }
func (s *stubSession) VerifyToken(context.Context) bool { return s.user != nil }

type stubProvider struct {
	sessions map[string]*stubSession
	opened   []string
}

func (p *stubProvider) Open(_ context.Context, sid string) ports.Session {
	p.opened = append(p.opened, sid)
	if s, ok := p.sessions[sid]; ok {
		return s
	}
	return &stubSession{id: sid}
}

func (p *stubProvider) Fresh(sid string) ports.Session { return &stubSession{id: sid} }

func (p *stubProvider) Discard(context.Context, string) {}

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	r, err := views.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	e := echo.New()
	e.Renderer = r
	return e
}

var (
	admin = &domain.User{ID: "u1", Email: "admin@royavalet.com", Role: domain.RoleAdmin}
	staff = &domain.User{ID: "u2", Email: "staff@royavalet.com", Role: domain.RoleStaff}
)
