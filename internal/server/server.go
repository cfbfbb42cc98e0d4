package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gkobilansky/abkit/internal/config"
	"github.com/gkobilansky/abkit/internal/narrative"
	"github.com/gkobilansky/abkit/internal/store"
)

type Server struct {
	store     *store.SQLiteStore
	cfg       config.Config
	port      int
	token     string
	tokenFile string
	narrator  narrative.Narrator
	logger    *slog.Logger
	metrics   *metrics
	router    *chi.Mux
	startTime time.Time
}

type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithNarrator enables plain-language interpretation of significance
// reports.
func WithNarrator(n narrative.Narrator) Option {
	return func(s *Server) { s.narrator = n }
}

// WithTokenFile makes Start write the API token to path so the token
// command can print it.
func WithTokenFile(path string) Option {
	return func(s *Server) { s.tokenFile = path }
}

// WithToken replaces the generated API token.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

func New(st *store.SQLiteStore, cfg config.Config, opts ...Option) *Server {
	srv := &Server{
		store:     st,
		cfg:       cfg,
		port:      cfg.Server.Port,
		token:     generateToken(),
		logger:    slog.Default(),
		metrics:   newMetrics(),
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/significance", s.handleSignificance)
		r.Post("/sample-size", s.handleSampleSize)
		r.Post("/duration", s.handleDuration)
		r.Post("/duration-curve", s.handleDurationCurve)
		r.Post("/scenarios", s.handleScenarios)
		r.Post("/plan", s.handlePlan)

		// Saved analyses (protected)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/analyses", s.handleListAnalyses)
			r.Get("/analyses/{id}", s.handleGetAnalysis)
			r.Delete("/analyses/{id}", s.handleDeleteAnalysis)
		})
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	// Write token to file for the token command
	if s.tokenFile != "" {
		if err := os.WriteFile(s.tokenFile, []byte(s.token), 0600); err != nil {
			s.logger.Warn("failed to write token file", "path", s.tokenFile, "error", err)
		}
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "port", s.port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) Port() int {
	return s.port
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func generateToken() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(bytes)
}
