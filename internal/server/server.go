// Package server wires the store, services, handlers and middleware into one
// router and runs it.
//
// DEPENDENCY FLOW:
//
//	config.Config ─┐
//	               ▼
//	sqlite.DB → stores → services → handlers → chi routes
//
// All construction happens in New; nothing below this package reaches for a
// global. Tests build a Server around a ":memory:" database and drive it
// through Handler().
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sakif/clubboard/internal/auth"
	"github.com/sakif/clubboard/internal/config"
	"github.com/sakif/clubboard/internal/handler"
	"github.com/sakif/clubboard/internal/middleware"
	sqliteRepo "github.com/sakif/clubboard/internal/repository/sqlite"
	"github.com/sakif/clubboard/internal/service"
)

// Server is the HTTP server and everything it owns.
type Server struct {
	router   *chi.Mux
	cfg      *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	tokens   *auth.TokenService
	registry *prometheus.Registry
}

// OpenDB creates the database directory if needed and opens the store.
func OpenDB(path string) (*sqliteRepo.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// New builds a Server around db. The Server takes ownership of db and
// closes it when Start returns.
func New(cfg *config.Config, db *sqliteRepo.DB, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		logger:   logger,
		db:       db,
		tokens:   tokens,
		registry: prometheus.NewRegistry(),
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes registers middleware and routes.
//
// ROUTES:
//
//	POST   /auth/signUp                       rate limited
//	POST   /auth/login                        rate limited
//	GET    /auth/me                           bearer
//	GET    /clubs, /clubs/{id}, /clubs/{id}/members
//	POST   /clubs
//	PUT    /clubs/{id}
//	DELETE /clubs/{id}                        bearer + admin
//	PUT    /clubs/{clubId}/members/{userId}
//	GET    /events, /events/{id}
//	POST   /events                            bearer
//	PUT    /events/{id}                       bearer
//	DELETE /events/{id}                       bearer
//	PATCH  /events/{id}/status                bearer
//	GET    /comments?postId=                  optional bearer
//	POST   /comments/{postId}                 optional bearer
//	PUT    /comments/{id}                     optional bearer
//	DELETE /comments/{id}                     optional bearer
//	GET    /healthz, /metrics, /*
//
// MIDDLEWARE ORDER:
// RequestID first so every later log line can carry it, RealIP before the
// rate limiter reads RemoteAddr, Recoverer innermost of the globals so a
// panic still gets logged and counted as a 500.
func (s *Server) setupRoutes() error {
	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	if s.cfg.MetricsEnabled() {
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		r.Use(middleware.NewMetrics(s.registry).Middleware)
	}
	r.Use(middleware.CORS(s.cfg.Server.CORSOrigins))
	r.Use(chimiddleware.Recoverer)

	loc, err := s.cfg.Location()
	if err != nil {
		return err
	}

	users, clubs, events, comments := s.db.Users(), s.db.Clubs(), s.db.Events(), s.db.Comments()
	passwords := auth.NewPasswordService(s.cfg.Auth.BcryptCost)

	authHandler := handler.NewAuthHandler(service.NewAuthService(users, passwords, s.tokens, s.logger), s.logger)
	clubHandler := handler.NewClubHandler(service.NewClubService(clubs, users, events, s.logger), s.logger)
	eventHandler := handler.NewEventHandler(service.NewEventService(events, clubs, s.logger), s.logger)
	commentHandler := handler.NewCommentHandler(service.NewCommentService(comments, events, users, loc, s.logger), s.logger)

	webHandler, err := handler.NewWebHandler(s.cfg.Web.Dir, s.logger)
	if err != nil {
		return fmt.Errorf("web dir %q: %w", s.cfg.Web.Dir, err)
	}

	requireAuth := auth.RequireAuth(s.tokens)
	optionalAuth := auth.OptionalAuth(s.tokens)
	limiter := auth.NewIPRateLimiter(rate.Limit(s.cfg.Auth.LoginRate), s.cfg.Auth.LoginBurst)

	r.Route("/auth", func(r chi.Router) {
		r.With(limiter.Middleware).Post("/signUp", authHandler.HandleSignup)
		r.With(limiter.Middleware).Post("/login", authHandler.HandleLogin)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)
	})

	r.Route("/clubs", func(r chi.Router) {
		r.Get("/", clubHandler.HandleList)
		r.Post("/", clubHandler.HandleCreate)
		r.Get("/{id}", clubHandler.HandleGet)
		r.Get("/{id}/members", clubHandler.HandleMembers)
		r.Put("/{id}", clubHandler.HandleUpdate)
		r.With(requireAuth, auth.RequireAdmin).Delete("/{id}", clubHandler.HandleDelete)
		r.Put("/{clubId}/members/{userId}", clubHandler.HandleUpdateMember)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.HandleList)
		r.Get("/{id}", eventHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", eventHandler.HandleCreate)
			r.Put("/{id}", eventHandler.HandleUpdate)
			r.Delete("/{id}", eventHandler.HandleDelete)
			r.Patch("/{id}/status", eventHandler.HandleSetStatus)
		})
	})

	r.Route("/comments", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/", commentHandler.HandleList)
		r.Post("/{postId}", commentHandler.HandleCreate)
		r.Put("/{id}", commentHandler.HandleUpdate)
		r.Delete("/{id}", commentHandler.HandleDelete)
	})

	r.Get("/healthz", handler.NewHealthHandler(s.db, s.logger).HandleHealth)
	if s.cfg.MetricsEnabled() {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.Get("/*", webHandler.HandleIndex)

	return nil
}

// Start serves HTTP until SIGINT/SIGTERM, then drains in-flight requests
// and closes the database.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run is Start with the shutdown trigger supplied by the caller.
func (s *Server) Run(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.cfg.Database.Path),
			slog.Bool("metrics", s.cfg.MetricsEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
