package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/royavalet/valet-site/internal/api/middleware"
	"github.com/royavalet/valet-site/internal/api/views"
	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
)

// SubscribePath only accepts POST, so it is never a page to go back to.
const SubscribePath = "/subscribe"

const (
	msgBadForm         = "Invalid form submission."
	msgContactFailed   = "Failed to send message. Please try again later."
	msgSubscribeFailed = "Failed to subscribe. Please try again."
	msgUnreachableForm = "Failed to subscribe. Please check your internet connection and try again."
	msgAlreadyOnList   = "This email is already subscribed to our newsletter."
	msgFixFields       = "Please correct the highlighted fields."
	msgSubmitGeneric   = "Something went wrong. Please try again later."
)

// PublicHandler serves the marketing pages and their lead-capture forms.
type PublicHandler struct {
	leads ports.LeadsService
	log   zerolog.Logger
}

func NewPublicHandler(leads ports.LeadsService, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{leads: leads, log: log}
}

func (h *PublicHandler) Home(c echo.Context) error {
	return c.Render(http.StatusOK, "home", middleware.NewPage(c, "", nil))
}

func (h *PublicHandler) About(c echo.Context) error {
	return c.Render(http.StatusOK, "about", middleware.NewPage(c, "About Us", nil))
}

func (h *PublicHandler) Services(c echo.Context) error {
	return c.Render(http.StatusOK, "services", middleware.NewPage(c, "Services", nil))
}

type contactForm struct {
	Name        string `form:"name" validate:"required,max=100"`
	Email       string `form:"email" validate:"required,email"`
	Phone       string `form:"phone" validate:"max=30"`
	Description string `form:"description" validate:"required,max=2000"`
}

// ContactView is the data of the contact page.
type ContactView struct {
	Form   domain.ContactInput
	Errors map[string]string
}

func (h *PublicHandler) ContactPage(c echo.Context) error {
	return h.renderContact(c, http.StatusOK, ContactView{}, nil)
}

// SubmitContact validates the form locally, then forwards it. Every outcome
// renders the contact page with an alert; on success the form is cleared.
func (h *PublicHandler) SubmitContact(c echo.Context) error {
	var f contactForm
	if err := c.Bind(&f); err != nil {
		return h.renderContact(c, http.StatusBadRequest, ContactView{}, &views.Flash{Kind: views.FlashError, Message: msgBadForm})
	}
	in := domain.ContactInput{
		Name:        trimmed(f.Name),
		Email:       trimmed(f.Email),
		Phone:       trimmed(f.Phone),
		Description: trimmed(f.Description),
	}
	f = contactForm{Name: in.Name, Email: in.Email, Phone: in.Phone, Description: in.Description}

	if err := c.Validate(&f); err != nil {
		return h.renderContact(c, http.StatusUnprocessableEntity,
			ContactView{Form: in, Errors: FieldErrors(err)},
			&views.Flash{Kind: views.FlashError, Message: msgFixFields})
	}

	res, err := h.leads.SubmitContact(c.Request().Context(), in)
	if err != nil {
		h.log.Error().Err(err).Msg("contact submission failed")
		return h.renderContact(c, http.StatusBadGateway, ContactView{Form: in}, &views.Flash{Kind: views.FlashError, Message: msgContactFailed})
	}

	switch res.Outcome {
	case ports.OutcomeSuccess:
		return h.renderContact(c, http.StatusOK, ContactView{}, &views.Flash{Kind: views.FlashSuccess, Message: res.Message})
	case ports.OutcomeInvalid:
		return h.renderContact(c, http.StatusUnprocessableEntity, ContactView{Form: in, Errors: res.Fields}, &views.Flash{Kind: views.FlashError, Message: res.Message})
	default:
		return h.renderContact(c, outcomeStatus(res.Outcome), ContactView{Form: in}, &views.Flash{Kind: views.FlashError, Message: res.Message})
	}
}

func (h *PublicHandler) renderContact(c echo.Context, code int, v ContactView, flash *views.Flash) error {
	p := middleware.NewPage(c, "Contact Us", v)
	p.Flash = flash
	return c.Render(code, "contact", p)
}

type subscribeForm struct {
	Email string `form:"email" validate:"required,email"`
	From  string `form:"from"`
}

// SubscribeView is the data of the subscription acknowledgement page.
type SubscribeView struct {
	Back string
}

// Subscribe handles the footer newsletter form present on every page.
func (h *PublicHandler) Subscribe(c echo.Context) error {
	var f subscribeForm
	bindErr := c.Bind(&f)
	f.Email = trimmed(f.Email)

	back := "/"
	if path, _, _ := strings.Cut(f.From, "?"); middleware.SafeLocalPath(f.From) && path != SubscribePath {
		back = f.From
	}
	render := func(code int, flash *views.Flash) error {
		p := middleware.NewPage(c, "Newsletter", SubscribeView{Back: back})
		p.Flash = flash
		return c.Render(code, "subscribe", p)
	}
	if bindErr != nil {
		return render(http.StatusBadRequest, &views.Flash{Kind: views.FlashError, Message: msgBadForm})
	}

	if err := c.Validate(&f); err != nil {
		return render(http.StatusUnprocessableEntity, &views.Flash{Kind: views.FlashError, Message: "Please enter a valid email address"})
	}

	res, err := h.leads.Subscribe(c.Request().Context(), f.Email, domain.SourceWebsiteFooter)
	if err != nil {
		h.log.Error().Err(err).Msg("newsletter subscription failed")
		return render(http.StatusBadGateway, &views.Flash{Kind: views.FlashError, Message: msgSubscribeFailed})
	}

	switch res.Outcome {
	case ports.OutcomeSuccess:
		return render(http.StatusOK, &views.Flash{Kind: views.FlashSuccess, Message: res.Message})
	case ports.OutcomeDuplicate:
		return render(http.StatusOK, &views.Flash{Kind: views.FlashInfo, Message: msgAlreadyOnList})
	case ports.OutcomeUnreachable:
		return render(http.StatusServiceUnavailable, &views.Flash{Kind: views.FlashError, Message: msgUnreachableForm})
	default:
		return render(outcomeStatus(res.Outcome), &views.Flash{Kind: views.FlashError, Message: res.Message})
	}
}

type unsubscribeForm struct {
	Email string `form:"email" query:"email" validate:"required,email"`
}

// UnsubscribeView is the data of the unsubscribe page.
type UnsubscribeView struct {
	Email  string
	Errors map[string]string
	Done   bool
}

func (h *PublicHandler) UnsubscribePage(c echo.Context) error {
	return h.renderUnsubscribe(c, http.StatusOK, UnsubscribeView{Email: trimmed(c.QueryParam("email"))}, nil)
}

func (h *PublicHandler) Unsubscribe(c echo.Context) error {
	var f unsubscribeForm
	if err := c.Bind(&f); err != nil {
		return h.renderUnsubscribe(c, http.StatusBadRequest, UnsubscribeView{}, &views.Flash{Kind: views.FlashError, Message: msgBadForm})
	}
	f.Email = trimmed(f.Email)

	if err := c.Validate(&f); err != nil {
		return h.renderUnsubscribe(c, http.StatusUnprocessableEntity, UnsubscribeView{Email: f.Email, Errors: FieldErrors(err)}, nil)
	}

	res, err := h.leads.Unsubscribe(c.Request().Context(), f.Email)
	if err != nil {
		h.log.Error().Err(err).Msg("unsubscribe failed")
		return h.renderUnsubscribe(c, http.StatusBadGateway, UnsubscribeView{Email: f.Email},
			&views.Flash{Kind: views.FlashError, Message: msgSubmitGeneric})
	}
	if res.Outcome == ports.OutcomeSuccess {
		return h.renderUnsubscribe(c, http.StatusOK, UnsubscribeView{Done: true}, &views.Flash{Kind: views.FlashSuccess, Message: res.Message})
	}
	return h.renderUnsubscribe(c, outcomeStatus(res.Outcome), UnsubscribeView{Email: f.Email, Errors: res.Fields},
		&views.Flash{Kind: views.FlashError, Message: res.Message})
}

func (h *PublicHandler) renderUnsubscribe(c echo.Context, code int, v UnsubscribeView, flash *views.Flash) error {
	p := middleware.NewPage(c, "Unsubscribe", v)
	p.Flash = flash
	return c.Render(code, "unsubscribe", p)
}

// outcomeStatus is the response code of a page rendered after a failed
// submission.
func outcomeStatus(o ports.Outcome) int {
	switch o {
	case ports.OutcomeSuccess, ports.OutcomeDuplicate:
		return http.StatusOK
	case ports.OutcomeInvalid:
		return http.StatusUnprocessableEntity
	case ports.OutcomeConflict:
		return http.StatusConflict
	case ports.OutcomeUnreachable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
