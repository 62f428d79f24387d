package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/royavalet/valet-site/internal/api/middleware"
	"github.com/royavalet/valet-site/internal/core/ports"
)

// ctxSession returns the session hydrated by the Session middleware. Routes
// mounted without it are a wiring error.
func ctxSession(c echo.Context) (ports.Session, error) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session not initialised")
	}
	return sess, nil
}

// pageParam reads a 1-based page number, defaulting to 1.
func pageParam(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func trimmed(s string) string { return strings.TrimSpace(s) }
