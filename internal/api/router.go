package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/royavalet/valet-site/internal/api/handler"
	"github.com/royavalet/valet-site/internal/api/middleware"
	"github.com/royavalet/valet-site/internal/api/views"
	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
	"github.com/royavalet/valet-site/internal/core/service"
)

const bodyLimit = "64K"

// Deps is everything the router needs, built once at startup.
type Deps struct {
	Log zerolog.Logger

	Provider ports.SessionProvider
	Cookies  middleware.SessionCookies
	Leads    ports.LeadsService
	Records  ports.RecordsService

	LeadViews *service.ListViews[domain.Lead]
	SubViews  *service.ListViews[domain.Subscription]

	// Storage and Backend are probed by /health/ready.
	Storage     ports.SessionStorage
	StorageName string
	Backend     ports.BackendClient

	CSRFEnabled bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	renderer, err := views.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlashWithConfig(echomiddleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "0",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "same-origin",
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	if d.CSRFEnabled {
		e.Use(echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
			TokenLookup:    "form:_csrf",
			ContextKey:     middleware.ContextKeyCSRF,
			CookieName:     "_csrf",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   d.Cookies.Secure,
			CookieSameSite: http.SameSiteLaxMode,
		}))
	}
	e.Use(middleware.Session(d.Provider, d.Cookies))

	// --- Dependencies ---
	publicHandler := handler.NewPublicHandler(d.Leads, d.Log)
	adminHandler := handler.NewAdminHandler(d.Records, d.LeadViews, d.SubViews, d.Log)
	authHandler := handler.NewAuthHandler(d.Provider, d.Cookies, adminHandler, d.Log)

	// --- Public site ---
	e.GET("/", publicHandler.Home)
	e.GET("/about", publicHandler.About)
	e.GET("/services", publicHandler.Services)
	e.GET("/contact", publicHandler.ContactPage)
	e.POST("/contact", publicHandler.SubmitContact)
	e.POST(handler.SubscribePath, publicHandler.Subscribe)
	e.GET("/unsubscribe", publicHandler.UnsubscribePage)
	e.POST("/unsubscribe", publicHandler.Unsubscribe)
	e.StaticFS("/static", views.Static())

	// --- Auth routes ---
	e.GET(handler.LoginPath, authHandler.LoginPage)
	e.POST(handler.LoginPath, authHandler.Login)
	e.POST("/admin/logout", authHandler.Logout)

	// --- Admin console ---
	e.GET("/admin", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, handler.DashboardPath)
	})
	admin := e.Group(handler.DashboardPath, middleware.Guard(middleware.GuardOptions{
		RequireAdmin: true,
		LoginPath:    handler.LoginPath,
	}))
	admin.GET("", adminHandler.Dashboard)
	admin.GET("/contacts", adminHandler.Contacts)
	admin.GET("/contacts/:id/delete", adminHandler.ConfirmDeleteContact)
	admin.POST("/contacts/:id/delete", adminHandler.DeleteContact)
	admin.GET("/emails", adminHandler.Emails)
	admin.GET("/emails/:id/delete", adminHandler.ConfirmDeleteEmail)
	admin.POST("/emails/:id/delete", adminHandler.DeleteEmail)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readyHandler := handler.NewReadinessHandler(d.Storage, d.StorageName, d.Backend)

	e.GET("/health", healthHandler.Liveness)       // liveness: is the process alive?
	e.GET("/health/ready", readyHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e, nil
}
