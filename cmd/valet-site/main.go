package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/royavalet/valet-site/internal/api"
	"github.com/royavalet/valet-site/internal/api/middleware"
	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
	"github.com/royavalet/valet-site/internal/core/service"
	"github.com/royavalet/valet-site/internal/infrastructure/backend"
	"github.com/royavalet/valet-site/internal/infrastructure/config"
	"github.com/royavalet/valet-site/internal/infrastructure/db/memory"
	mongostore "github.com/royavalet/valet-site/internal/infrastructure/db/mongo"
	redisstore "github.com/royavalet/valet-site/internal/infrastructure/db/redis"
	"github.com/royavalet/valet-site/internal/infrastructure/telemetry"
	"github.com/royavalet/valet-site/pkg/logger"
)

const (
	serviceName = "valet-site"
	// listViewSessions bounds the admin sessions whose table state is kept.
	listViewSessions = 1024
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "dotenv: %v\n", err)
	}
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: serviceName,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("valet-site stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	storage, storageName, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	client := backend.NewClient(backend.Options{
		BaseURL: cfg.APIBaseURL(),
		Timeout: cfg.Backend.Timeout,
		Tokens:  service.NewStorageTokens(storage),
		Logger:  logger.Component(log, "backend"),
	})

	leadViews, err := service.NewListViews[domain.Lead]("lead", listViewSessions)
	if err != nil {
		return err
	}
	subViews, err := service.NewListViews[domain.Subscription]("subscription", listViewSessions)
	if err != nil {
		return err
	}

	e, err := api.NewRouter(api.Deps{
		Log:      logger.Component(log, "http"),
		Provider: service.NewAuthProvider(storage, client, logger.Component(log, "session")),
		Cookies: middleware.SessionCookies{
			Name:   cfg.Session.CookieName,
			Secure: cfg.SecureCookies(),
			MaxAge: cfg.Session.TTL,
		},
		Leads:       service.NewLeadsService(client, logger.Component(log, "leads")),
		Records:     service.NewRecordsService(client, cfg.PageSize, logger.Component(log, "records")),
		LeadViews:   leadViews,
		SubViews:    subViews,
		Storage:     storage,
		StorageName: storageName,
		Backend:     client,
		CSRFEnabled: cfg.CSRFEnabled,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("backend", cfg.APIBaseURL()).
			Str("sessions", storageName).
			Bool("production", cfg.IsProduction()).
			Msg("valet-site listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStorage connects the configured session backend. The returned close
// func is always safe to call.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.SessionStorage, string, func(), error) {
	switch cfg.Session.Backend {
	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, "", nil, fmt.Errorf("mongo: %w", err)
		}
		closeFn := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}
		store := mongostore.NewSessionStorage(db, cfg.Session.TTL)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, "", nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return store, "mongodb", closeFn, nil

	case "memory":
		log.Warn().Msg("sessions kept in process memory; they do not survive a restart")
		return memory.NewSessionStorage(cfg.Session.TTL), "memory", func() {}, nil

	default:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			return nil, "", nil, fmt.Errorf("redis: %w", err)
		}
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close failed")
			}
		}
		return redisstore.NewSessionStorage(rdb, cfg.Session.TTL), "redis", closeFn, nil
	}
}
