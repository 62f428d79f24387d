// Package views holds the HTML templates of the site and the echo renderer
// that executes them. Each page is parsed together with the shared layout.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/royavalet/valet-site/internal/core/domain"
)

//go:embed templates/*.html
var files embed.FS

//go:embed static
var static embed.FS

// Static returns the stylesheet and other assets served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

const layoutFile = "templates/layout.html"

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a dismissible alert shown at the top of a page.
type Flash struct {
	Kind    string
	Message string
}

// Page is the data every template receives.
type Page struct {
	Title string
	// Path is the request path, used to highlight navigation and to return
	// to the current page after a footer subscription.
	Path  string
	CSRF  string
	User  *domain.User
	Flash *Flash
	Data  any
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layout with every page template.
func NewRenderer() (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(files, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		t, err := template.Must(layout.Clone()).ParseFS(files, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return r, nil
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("Jan 2, 2006")
	},
	"datetime": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "never"
		}
		return t.Format("Jan 2, 2006 15:04")
	},
	"statusLabel": func(s domain.SubscriptionStatus) string { return s.Label() },
	"statusClass": func(s domain.SubscriptionStatus) string {
		if !s.Valid() {
			return string(domain.SubscriptionActive)
		}
		return string(s)
	},
	"orDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
	"year": func() int { return time.Now().Year() },
}
