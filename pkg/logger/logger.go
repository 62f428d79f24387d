// Package logger builds the zerolog loggers used across valet-site.
//
// main calls Init once and hands child loggers to each component through
// Component. Nothing reads a global logger; everything is injected.
package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is one of trace, debug, info, warn or error. Anything else is info.
	Level string
	// Pretty writes coloured console lines instead of JSON.
	Pretty bool
	// Service tags every entry as "service" when set.
	Service string
	// Output defaults to os.Stdout.
	Output io.Writer
}

var root atomic.Pointer[zerolog.Logger]

// New builds a logger from opts without touching the process logger.
func New(opts Options) zerolog.Logger {
	var w io.Writer = os.Stdout
	if opts.Output != nil {
		w = opts.Output
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	fields := zerolog.New(w).Level(parseLevel(opts.Level)).With().Timestamp()
	if opts.Service != "" {
		fields = fields.Str("service", opts.Service)
	}
	return fields.Logger()
}

// Init installs the process logger and returns it. Once installed, later
// calls return the existing logger unchanged.
func Init(opts Options) zerolog.Logger {
	if l := root.Load(); l != nil {
		return *l
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(parseLevel(opts.Level))
	l := New(opts)
	if !root.CompareAndSwap(nil, &l) {
		return *root.Load()
	}
	return l
}

// Component returns a child of l tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Reset uninstalls the process logger. Tests only.
func Reset() {
	root.Store(nil)
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return zerolog.WarnLevel
	}
	switch lvl, err := zerolog.ParseLevel(s); {
	case err != nil, s == "", lvl < zerolog.TraceLevel, lvl > zerolog.ErrorLevel:
		return zerolog.InfoLevel
	default:
		return lvl
	}
}
