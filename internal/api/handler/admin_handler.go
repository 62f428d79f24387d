package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/royavalet/valet-site/internal/api/middleware"
	"github.com/royavalet/valet-site/internal/api/views"
	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
	"github.com/royavalet/valet-site/internal/core/service"
	"github.com/royavalet/valet-site/internal/pkg/metrics"
)

const (
	ContactsPath = DashboardPath + "/contacts"
	EmailsPath   = DashboardPath + "/emails"

	noticeDeleted = "deleted"
	msgNewerList  = "A newer request loaded this table. Showing the latest results."
)

// AdminHandler serves the dashboard home and the two record tables.
type AdminHandler struct {
	records ports.RecordsService
	leads   recordTable[domain.Lead]
	subs    recordTable[domain.Subscription]
	log     zerolog.Logger
}

func NewAdminHandler(records ports.RecordsService, leads *service.ListViews[domain.Lead], subs *service.ListViews[domain.Subscription], log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		records: records,
		leads: recordTable[domain.Lead]{
			kind:        "lead",
			label:       "contact",
			template:    "contacts",
			title:       "Contacts",
			base:        ContactsPath,
			fetchAlert:  "Failed to fetch contacts. Please try again.",
			deleteAlert: "Failed to delete contact. Please try again.",
			deleted:     "Contact has been deleted successfully.",
			views:       leads,
			list:        records.ListLeads,
			del:         records.DeleteLead,
		},
		subs: recordTable[domain.Subscription]{
			kind:        "subscription",
			label:       "email subscription",
			template:    "emails",
			title:       "Email Subscriptions",
			base:        EmailsPath,
			fetchAlert:  "Failed to fetch email subscriptions. Please try again.",
			deleteAlert: "Failed to delete email subscription. Please try again.",
			deleted:     "Email subscription has been deleted successfully.",
			views:       subs,
			list:        records.ListSubscriptions,
			del:         records.DeleteSubscription,
		},
		log: log,
	}
}

// Forget drops the table state of a session.
func (h *AdminHandler) Forget(sessionID string) {
	h.leads.views.Forget(sessionID)
	h.subs.views.Forget(sessionID)
}

// DashboardView is the data of the dashboard home.
type DashboardView struct {
	Overview domain.Overview
}

// Dashboard verifies the token with the backend, then shows the overview
// counters. Counters fall back to zero when the overview cannot be fetched.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if !sess.VerifyToken(ctx) && !sess.IsAuthenticated() {
		return c.Redirect(http.StatusFound, middleware.LoginURL(LoginPath, c.Request().URL.RequestURI()))
	}

	ov, err := h.records.Overview(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("dashboard overview unavailable")
		ov = domain.Overview{}
	}
	return c.Render(http.StatusOK, "dashboard", middleware.NewPage(c, "Dashboard", DashboardView{Overview: ov}))
}

func (h *AdminHandler) Contacts(c echo.Context) error { return showList(c, h.log, h.leads) }

func (h *AdminHandler) Emails(c echo.Context) error { return showList(c, h.log, h.subs) }

func (h *AdminHandler) ConfirmDeleteContact(c echo.Context) error { return confirmDelete(c, h.leads) }

func (h *AdminHandler) ConfirmDeleteEmail(c echo.Context) error { return confirmDelete(c, h.subs) }

func (h *AdminHandler) DeleteContact(c echo.Context) error { return deleteRecord(c, h.log, h.leads) }

func (h *AdminHandler) DeleteEmail(c echo.Context) error { return deleteRecord(c, h.log, h.subs) }

// recordTable describes one record table.
type recordTable[T any] struct {
	kind        string
	label       string
	template    string
	title       string
	base        string
	fetchAlert  string
	deleteAlert string
	deleted     string
	views       *service.ListViews[T]
	list        func(ctx context.Context, page int) (domain.Page[T], error)
	del         func(ctx context.Context, id string) (string, error)
}

// ListView is the data of a record table page.
type ListView[T any] struct {
	Page domain.Page[T]
	Base string
}

// ConfirmView is the data of the delete confirmation page.
type ConfirmView struct {
	Kind    string
	Name    string
	Action  string
	PageNum int
}

// showList fetches one page under a fresh ticket. A response that lost the
// race to a newer request is not committed; the page renders whatever is
// committed last, which after a failed fetch is the prior state. A discarded
// response says so, since the rows shown are not the page that was asked for.
func showList[T any](c echo.Context, log zerolog.Logger, s recordTable[T]) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	view := s.views.For(sess.ID())
	page := pageParam(c.QueryParam("page"))

	ticket := view.Begin()
	fetched, err := s.list(c.Request().Context(), page)

	var flash *views.Flash
	switch {
	case err != nil:
		log.Warn().Err(err).Str("kind", s.kind).Int("page", page).Msg("list fetch failed")
		flash = &views.Flash{Kind: views.FlashError, Message: fetchMessage(err, s.fetchAlert)}
	case !view.Commit(ticket, fetched):
		log.Debug().Str("kind", s.kind).Int("page", page).Msg("stale list response discarded")
		flash = &views.Flash{Kind: views.FlashInfo, Message: msgNewerList}
	case c.QueryParam("notice") == noticeDeleted:
		flash = &views.Flash{Kind: views.FlashSuccess, Message: s.deleted}
	}

	current, _ := view.State()
	return renderList(c, http.StatusOK, s, current, flash)
}

// confirmDelete asks before deleting. It never calls the backend.
func confirmDelete[T any](c echo.Context, s recordTable[T]) error {
	id := c.Param("id")
	name := trimmed(c.QueryParam("name"))
	if name == "" {
		name = id
	}
	data := ConfirmView{
		Kind:    s.label,
		Name:    name,
		Action:  deletePath(s.base, id),
		PageNum: pageParam(c.QueryParam("page")),
	}
	return c.Render(http.StatusOK, "confirm_delete", middleware.NewPage(c, "Confirm Delete", data))
}

// deleteRecord issues the DELETE only when the form carries confirm=yes. On
// success the visitor is sent back to the same page so the table is fetched
// again; on failure the prior table state is shown with the server's message.
func deleteRecord[T any](c echo.Context, log zerolog.Logger, s recordTable[T]) error {
	page := pageParam(c.FormValue("page"))
	back := fmt.Sprintf("%s?page=%d", s.base, page)

	if c.FormValue("confirm") != "yes" {
		metrics.RecordDeletionsTotal.WithLabelValues(s.kind, "cancelled").Inc()
		return c.Redirect(http.StatusSeeOther, back)
	}

	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	if _, err := s.del(c.Request().Context(), c.Param("id")); err != nil {
		log.Warn().Err(err).Str("kind", s.kind).Msg("delete failed")
		current, _ := s.views.For(sess.ID()).State()
		return renderList(c, http.StatusOK, s, current, &views.Flash{Kind: views.FlashError, Message: deleteMessage(err, s.deleteAlert)})
	}
	return c.Redirect(http.StatusSeeOther, back+"&notice="+noticeDeleted)
}

func renderList[T any](c echo.Context, code int, s recordTable[T], page domain.Page[T], flash *views.Flash) error {
	p := middleware.NewPage(c, s.title, ListView[T]{Page: page, Base: s.base})
	p.Flash = flash
	return c.Render(code, s.template, p)
}

func deletePath(base, id string) string {
	return base + "/" + url.PathEscape(id) + "/delete"
}

func fetchMessage(err error, fallback string) string {
	var ue *domain.UnreachableError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return fallback
}

func deleteMessage(err error, fallback string) string {
	var (
		rej *domain.RejectedError
		se  *domain.ServerError
		ue  *domain.UnreachableError
	)
	switch {
	case errors.As(err, &rej) && rej.Message != "":
		return rej.Message
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	case errors.As(err, &ue):
		return ue.Message
	}
	return fallback
}
