package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/royavalet/valet-site/internal/api/middleware"
	"github.com/royavalet/valet-site/internal/api/views"
	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
)

var adminUser = &domain.User{ID: "u1", Email: "admin@royavalet.com", Name: "Roya", Role: domain.RoleAdmin}

type stubSession struct {
	id       string
	user     *domain.User
	loginFn  func(email, password string) ports.LoginResult
	verifyFn func() bool

	loggedOut bool
}

func (s *stubSession) ID() string            { return s.id }
func (s *stubSession) IsLoading() bool       { return false }
func (s *stubSession) IsAuthenticated() bool { return s.user != nil }
func (s *stubSession) IsAdmin() bool         { return s.user.IsAdmin() }
func (s *stubSession) User() *domain.User    { return s.user }

func (s *stubSession) Login(_ context.Context, email, password string) ports.LoginResult {
	res := s.loginFn(email, password)
	if res.Success {
		s.user = res.User
	}
	return res
}

func (s *stubSession) Logout(context.Context) {
	s.loggedOut = true
	s.user = nil
}

func (s *stubSession) VerifyToken(context.Context) bool {
	if s.verifyFn == nil {
		return s.user != nil
	}
	return s.verifyFn()
}

type stubProvider struct {
	fresh     *stubSession
	freshIDs  []string
	discarded []string
}

func (p *stubProvider) Open(_ context.Context, sid string) ports.Session {
	return &stubSession{id: sid}
}

func (p *stubProvider) Fresh(sid string) ports.Session {
	p.freshIDs = append(p.freshIDs, sid)
	p.fresh.id = sid
	return p.fresh
}

func (p *stubProvider) Discard(_ context.Context, sid string) {
	p.discarded = append(p.discarded, sid)
}

type stubForgetter struct {
	forgotten []string
}

func (f *stubForgetter) Forget(sid string) { f.forgotten = append(f.forgotten, sid) }

type stubLeads struct {
	contactFn     func(in domain.ContactInput) (ports.SubmissionResult, error)
	subscribeFn   func(email, source string) (ports.SubmissionResult, error)
	unsubscribeFn func(email string) (ports.SubmissionResult, error)
	calls         int
}

func (s *stubLeads) SubmitContact(_ context.Context, in domain.ContactInput) (ports.SubmissionResult, error) {
	s.calls++
	return s.contactFn(in)
}

func (s *stubLeads) Subscribe(_ context.Context, email, source string) (ports.SubmissionResult, error) {
	s.calls++
	return s.subscribeFn(email, source)
}

func (s *stubLeads) Unsubscribe(_ context.Context, email string) (ports.SubmissionResult, error) {
	s.calls++
	return s.unsubscribeFn(email)
}

type stubRecords struct {
	mu         sync.Mutex
	leadsFn    func(page int) (domain.Page[domain.Lead], error)
	subsFn     func(page int) (domain.Page[domain.Subscription], error)
	deleteFn   func(id string) (string, error)
	overviewFn func() (domain.Overview, error)

	calls   int
	deleted []string
}

func (s *stubRecords) hit() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *stubRecords) ListLeads(_ context.Context, page int) (domain.Page[domain.Lead], error) {
	s.hit()
	return s.leadsFn(page)
}

func (s *stubRecords) ListSubscriptions(_ context.Context, page int) (domain.Page[domain.Subscription], error) {
	s.hit()
	return s.subsFn(page)
}

func (s *stubRecords) DeleteLead(_ context.Context, id string) (string, error) {
	s.hit()
	s.deleted = append(s.deleted, id)
	return s.deleteFn(id)
}

func (s *stubRecords) DeleteSubscription(_ context.Context, id string) (string, error) {
	s.hit()
	s.deleted = append(s.deleted, id)
	return s.deleteFn(id)
}

func (s *stubRecords) Overview(context.Context) (domain.Overview, error) {
	s.hit()
	return s.overviewFn()
}

func (s *stubRecords) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	r, err := views.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	e := echo.New()
	e.Renderer = r
	e.Validator = NewValidator()
	return e
}

// newContext builds a request context with sess installed the way the
// Session middleware does. A non-nil form makes it a urlencoded POST body.
func newContext(e *echo.Echo, method, target string, form url.Values, sess ports.Session) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if sess != nil {
		c.Set(middleware.ContextKeySession, sess)
	}
	return c, rec
}
