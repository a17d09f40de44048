package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dodopoint/concierge/internal/ai"
	"github.com/dodopoint/concierge/internal/ai/gemini"
	"github.com/dodopoint/concierge/internal/concierge"
	"github.com/dodopoint/concierge/internal/config"
	"github.com/dodopoint/concierge/internal/server"
	"github.com/dodopoint/concierge/internal/session"
	"github.com/dodopoint/concierge/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	// Initialize structured logging from environment.
	logLevel := os.Getenv("DODO_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("DODO_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL and apply the schema.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	// Pick the conversation session backend.
	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		redisSessions, redisErr := session.NewRedisStore(ctx,
			cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Session.TTL)
		if redisErr != nil {
			return redisErr
		}
		defer func() { _ = redisSessions.Close() }()
		sessions = redisSessions
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis session store")
	default:
		sessions = session.NewMemoryStore(cfg.Session.MaxEntries, cfg.Session.TTL)
		log.Info().Int("max_entries", cfg.Session.MaxEntries).Msg("using in-memory session store")
	}

	// Build the model gateway and the intent dispatcher.
	model := gemini.New(gemini.Config{
		BaseURL:     cfg.Gemini.BaseURL,
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		MaxAttempts: cfg.Gemini.MaxAttempts,
	})
	dispatcher := ai.NewDispatcher(store.Wallets())

	svc := concierge.NewService(
		sessions,
		store.Wallets(),
		store.Transactions(),
		store.Audit(),
		model,
		dispatcher,
	)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, svc)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
