package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/royavalet/valet-site/internal/api/middleware"
	"github.com/royavalet/valet-site/internal/core/domain"
)

// errorResponse is the error envelope for clients that only accept JSON.
type errorResponse struct {
	Error string `json:"error"`
}

// ErrorView is the data of the error page.
type ErrorView struct {
	Code    int
	Message string
}

// NewHTTPErrorHandler renders failures as the error page, or as
// {"error": "<message>"} for clients that only accept JSON. Backend failures
// keep their message; anything unrecognised is logged and shown generically.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		if wantsJSON(c.Request()) {
			_ = c.JSON(code, errorResponse{Error: msg})
			return
		}
		if rerr := c.Render(code, "error", middleware.NewPage(c, http.StatusText(code), ErrorView{Code: code, Message: msg})); rerr != nil {
			log.Error().Err(rerr).Msg("error page render failed")
			_ = c.String(code, msg)
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (router 404, CSRF 403, body limit 413, ...)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnexpected(log, c, err)
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var (
		rej *domain.RejectedError
		se  *domain.ServerError
		ue  *domain.UnreachableError
	)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, "Record not found."
	case errors.As(err, &ue):
		return http.StatusServiceUnavailable, ue.Message
	case errors.As(err, &rej):
		return rejectionStatus(rej.Kind), rej.Error()
	case errors.As(err, &se):
		log.Warn().Err(err).Int("status", se.Status).Str("path", c.Path()).Msg("backend server error")
		return http.StatusBadGateway, se.Error()
	}

	logUnexpected(log, c, err)
	return http.StatusInternalServerError, "Something went wrong. Please try again."
}

func rejectionStatus(k domain.Rejection) int {
	switch k {
	case domain.RejectedValidation:
		return http.StatusUnprocessableEntity
	case domain.RejectedAuth:
		return http.StatusUnauthorized
	case domain.RejectedConflict:
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func logUnexpected(log zerolog.Logger, c echo.Context, err error) {
	req := c.Request()
	log.Error().Err(err).
		Str("method", req.Method).
		Str("route", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("request failed")
}

// wantsJSON reports whether the client accepts JSON but not HTML.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
