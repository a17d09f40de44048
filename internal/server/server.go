package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/dodopoint/concierge/internal/concierge"
	"github.com/dodopoint/concierge/internal/config"
	"github.com/dodopoint/concierge/internal/server/middleware"
	"github.com/dodopoint/concierge/internal/store/postgres"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	svc        *concierge.Service
	cfg        *config.Config
}

// New creates a Server with all routes wired. The lifecycle context bounds
// background goroutines such as the rate limiter cleanup.
func New(ctx context.Context, cfg *config.Config, store *postgres.Store, svc *concierge.Service) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		store:  store,
		svc:    svc,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1. Every route resolves the acting user from
	// the X-User-ID header and is rate limited per user.
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.UserContext())
		r.Use(middleware.RateLimit(ctx, 10, 30))

		apiConfig := huma.DefaultConfig("DoDo Point Concierge API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, store, svc)
	})

	// Health check (unauthenticated, so limited per source IP). Reports
	// whether a Gemini key is configured so deploys catch a missing
	// credential early.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, 5, 10))
		r.Get("/healthz", s.handleHealthz)
	})

	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if s.cfg.Gemini.APIKey != "" {
		_, _ = w.Write([]byte(`{"status":"ok","model":"configured"}`))
	} else {
		_, _ = w.Write([]byte(`{"status":"ok","model":"missing api key"}`))
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
