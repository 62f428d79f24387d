package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
)

func contactValues(name, email, phone, description string) url.Values {
	return url.Values{"name": {name}, "email": {email}, "phone": {phone}, "description": {description}}
}

func TestPublicHandler_SubmitContactSuccessClearsForm(t *testing.T) {
	leads := &stubLeads{contactFn: func(in domain.ContactInput) (ports.SubmissionResult, error) {
		if in.Name != "Jane" || in.Email != "jane@x.com" || in.Description != "test" {
			t.Fatalf("unexpected input: %+v", in)
		}
		return ports.SubmissionResult{Outcome: ports.OutcomeSuccess, Message: "Thanks"}, nil
	}}
	h := NewPublicHandler(leads, zerolog.Nop())

	c, rec := newContext(newEcho(t), http.MethodPost, "/contact", contactValues(" Jane ", "jane@x.com", "", "test"), nil)
	if err := h.SubmitContact(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Thanks") || !strings.Contains(body, "alert-success") {
		t.Fatalf("expected success alert, got %s", body)
	}
	if strings.Contains(body, `value="Jane"`) {
		t.Fatalf("expected form cleared after success")
	}
}

func TestPublicHandler_SubmitContactLocalValidation(t *testing.T) {
	leads := &stubLeads{}
	h := NewPublicHandler(leads, zerolog.Nop())

	c, rec := newContext(newEcho(t), http.MethodPost, "/contact", contactValues("", "not-an-email", "", "hi"), nil)
	if err := h.SubmitContact(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if leads.calls != 0 {
		t.Fatalf("invalid form must not reach the backend")
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Name is required") || !strings.Contains(body, "Please enter a valid email address") {
		t.Fatalf("expected field errors, got %s", body)
	}
	if !strings.Contains(body, `value="not-an-email"`) {
		t.Fatalf("expected input preserved")
	}
}

func TestPublicHandler_SubmitContactBackendOutcomes(t *testing.T) {
	cases := []struct {
		name   string
		result ports.SubmissionResult
		err    error
		code   int
		want   string
	}{
		{
			name:   "invalid",
			result: ports.SubmissionResult{Outcome: ports.OutcomeInvalid, Message: "Validation failed", Fields: map[string]string{"email": "Email domain not accepted"}},
			code:   http.StatusUnprocessableEntity,
			want:   "Email domain not accepted",
		},
		{
			name:   "conflict",
			result: ports.SubmissionResult{Outcome: ports.OutcomeConflict, Message: "Too many requests"},
			code:   http.StatusConflict,
			want:   "Too many requests",
		},
		{
			name:   "unreachable",
			result: ports.SubmissionResult{Outcome: ports.OutcomeUnreachable, Message: "Network error. Please check if the backend server is running."},
			code:   http.StatusServiceUnavailable,
			want:   "Network error",
		},
		{
			name: "server error",
			err:  &domain.ServerError{Status: http.StatusInternalServerError},
			code: http.StatusBadGateway,
			want: msgContactFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			leads := &stubLeads{contactFn: func(domain.ContactInput) (ports.SubmissionResult, error) {
				return tc.result, tc.err
			}}
			h := NewPublicHandler(leads, zerolog.Nop())

			c, rec := newContext(newEcho(t), http.MethodPost, "/contact", contactValues("Jane", "jane@x.com", "", "test"), nil)
			if err := h.SubmitContact(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tc.want) {
				t.Fatalf("expected %q in body", tc.want)
			}
			if !strings.Contains(body, `value="Jane"`) {
				t.Fatalf("expected input preserved after failure")
			}
		})
	}
}

func TestPublicHandler_SubscribeOutcomes(t *testing.T) {
	cases := []struct {
		name   string
		result ports.SubmissionResult
		err    error
		code   int
		want   string
	}{
		{"success", ports.SubmissionResult{Outcome: ports.OutcomeSuccess, Message: "Successfully subscribed!"}, nil, http.StatusOK, "Successfully subscribed!"},
		{"duplicate", ports.SubmissionResult{Outcome: ports.OutcomeDuplicate, Message: "Email already subscribed"}, nil, http.StatusOK, msgAlreadyOnList},
		{"unreachable", ports.SubmissionResult{Outcome: ports.OutcomeUnreachable}, nil, http.StatusServiceUnavailable, msgUnreachableForm},
		{"error", ports.SubmissionResult{}, errors.New("boom"), http.StatusBadGateway, msgSubscribeFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			leads := &stubLeads{subscribeFn: func(email, source string) (ports.SubmissionResult, error) {
				if email != "jane@x.com" || source != domain.SourceWebsiteFooter {
					t.Fatalf("unexpected args %q %q", email, source)
				}
				return tc.result, tc.err
			}}
			h := NewPublicHandler(leads, zerolog.Nop())

			form := url.Values{"email": {"jane@x.com"}, "from": {"/services"}}
			c, rec := newContext(newEcho(t), http.MethodPost, "/subscribe", form, nil)
			if err := h.Subscribe(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tc.want) {
				t.Fatalf("expected %q in body", tc.want)
			}
			if !strings.Contains(body, `href="/services"`) {
				t.Fatalf("expected back link to the originating page")
			}
		})
	}
}

func TestPublicHandler_SubscribeRejectsForeignBackLink(t *testing.T) {
	leads := &stubLeads{subscribeFn: func(string, string) (ports.SubmissionResult, error) {
		return ports.SubmissionResult{Outcome: ports.OutcomeSuccess, Message: "ok"}, nil
	}}
	h := NewPublicHandler(leads, zerolog.Nop())

	form := url.Values{"email": {"jane@x.com"}, "from": {"//evil.example"}}
	c, rec := newContext(newEcho(t), http.MethodPost, "/subscribe", form, nil)
	if err := h.Subscribe(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "evil.example") {
		t.Fatalf("foreign back link must be dropped")
	}
}

func TestPublicHandler_SubscribeFromAcknowledgementPageGoesHome(t *testing.T) {
	leads := &stubLeads{subscribeFn: func(string, string) (ports.SubmissionResult, error) {
		return ports.SubmissionResult{Outcome: ports.OutcomeSuccess, Message: "ok"}, nil
	}}
	h := NewPublicHandler(leads, zerolog.Nop())

	for _, from := range []string{SubscribePath, SubscribePath + "?again=1"} {
		form := url.Values{"email": {"jane@x.com"}, "from": {from}}
		c, rec := newContext(newEcho(t), http.MethodPost, SubscribePath, form, nil)
		if err := h.Subscribe(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		body := rec.Body.String()
		if strings.Contains(body, `class="button" href="/subscribe`) || !strings.Contains(body, `class="button" href="/"`) {
			t.Fatalf("from=%s: expected Continue to link home", from)
		}
	}
}

func TestPublicHandler_BindFailureIsBadRequest(t *testing.T) {
	h := NewPublicHandler(&stubLeads{}, zerolog.Nop())
	cases := map[string]echo.HandlerFunc{
		"/contact":     h.SubmitContact,
		"/subscribe":   h.Subscribe,
		"/unsubscribe": h.Unsubscribe,
	}
	for path, fn := range cases {
		t.Run(path, func(t *testing.T) {
			e := newEcho(t)
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{bad"))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			if err := fn(e.NewContext(req, rec)); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), msgBadForm) {
				t.Fatalf("expected bad form message")
			}
		})
	}
}

func TestPublicHandler_SubscribeInvalidEmail(t *testing.T) {
	leads := &stubLeads{}
	h := NewPublicHandler(leads, zerolog.Nop())

	c, rec := newContext(newEcho(t), http.MethodPost, "/subscribe", url.Values{"email": {"nope"}}, nil)
	if err := h.Subscribe(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity || leads.calls != 0 {
		t.Fatalf("expected local rejection, got %d with %d calls", rec.Code, leads.calls)
	}
}

func TestPublicHandler_Unsubscribe(t *testing.T) {
	leads := &stubLeads{unsubscribeFn: func(email string) (ports.SubmissionResult, error) {
		if email != "jane@x.com" {
			t.Fatalf("unexpected email %q", email)
		}
		return ports.SubmissionResult{Outcome: ports.OutcomeSuccess, Message: "You have been unsubscribed."}, nil
	}}
	h := NewPublicHandler(leads, zerolog.Nop())

	c, rec := newContext(newEcho(t), http.MethodPost, "/unsubscribe", url.Values{"email": {"jane@x.com"}}, nil)
	if err := h.Unsubscribe(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "You have been unsubscribed.") {
		t.Fatalf("expected confirmation, got %d", rec.Code)
	}
	if strings.Contains(body, `action="/unsubscribe"`) {
		t.Fatalf("form must be hidden once done")
	}
}

func TestPublicHandler_UnsubscribePagePrefillsEmail(t *testing.T) {
	h := NewPublicHandler(&stubLeads{}, zerolog.Nop())

	c, rec := newContext(newEcho(t), http.MethodGet, "/unsubscribe?email=jane%40x.com", nil, nil)
	if err := h.UnsubscribePage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `value="jane@x.com"`) {
		t.Fatalf("expected prefilled email")
	}
}

func TestPublicHandler_StaticPages(t *testing.T) {
	h := NewPublicHandler(&stubLeads{}, zerolog.Nop())
	e := newEcho(t)
	for path, fn := range map[string]echo.HandlerFunc{
		"/":         h.Home,
		"/about":    h.About,
		"/services": h.Services,
		"/contact":  h.ContactPage,
	} {
		c, rec := newContext(e, http.MethodGet, path, nil, nil)
		if err := fn(c); err != nil {
			t.Fatalf("%s: handler error: %v", path, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
