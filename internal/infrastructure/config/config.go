package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	ProductionAPIURL  = "https://royavaletbackend.onrender.com"
	DevelopmentAPIURL = "http://localhost:5000"
)

// buildProduction is set at link time:
//
//	go build -ldflags "-X github.com/royavalet/valet-site/internal/infrastructure/config.buildProduction=true"
var buildProduction = "false"

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	LogPretty       bool          `env:"LOG_PRETTY,       default=false"`
	PageSize        int           `env:"PAGE_SIZE,        default=10"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	CSRFEnabled     bool          `env:"CSRF_ENABLED,     default=true"`

	Backend   BackendConfig
	Session   SessionConfig
	Redis     RedisConfig
	Mongo     MongoConfig
	Telemetry TelemetryConfig
}

type BackendConfig struct {
	// URL overrides the base origin resolution when set.
	URL     string        `env:"API_URL"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=0s"`
}

type SessionConfig struct {
	Backend      string        `env:"SESSION_BACKEND, default=redis"`
	TTL          time.Duration `env:"SESSION_TTL,     default=168h"`
	CookieName   string        `env:"SESSION_COOKIE,  default=valet_sid"`
	CookieSecure *bool         `env:"COOKIE_SECURE, noinit"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=royavalet_site"`
}

type TelemetryConfig struct {
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE, default=false"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := Process(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// Process reads configuration from the given lookuper and validates it.
func Process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case "redis", "mongo", "memory":
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of redis, mongo, memory (got %q)", c.Session.Backend)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive (got %d)", c.PageSize)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive (got %s)", c.Session.TTL)
	}
	return nil
}

// IsProduction reports whether the process runs as production, either from
// the link-time flag or from ENV.
func (c *Config) IsProduction() bool {
	return buildProduction == "true" || strings.EqualFold(c.Env, "production")
}

// APIBaseURL resolves the backend origin: explicit override, then the
// production default, then the local development default.
func (c *Config) APIBaseURL() string {
	return ResolveAPIBaseURL(c.Backend.URL, c.IsProduction())
}

// SecureCookies reports whether the session cookie carries the Secure flag.
// COOKIE_SECURE wins; otherwise production implies secure.
func (c *Config) SecureCookies() bool {
	if c.Session.CookieSecure != nil {
		return *c.Session.CookieSecure
	}
	return c.IsProduction()
}

func ResolveAPIBaseURL(override string, production bool) string {
	if u := strings.TrimRight(strings.TrimSpace(override), "/"); u != "" {
		return u
	}
	if production {
		return ProductionAPIURL
	}
	return DevelopmentAPIURL
}
