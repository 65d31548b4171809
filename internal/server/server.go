// Package server provides the HTTP API for the matchmaker: job and
// application listings, the interactive feedback callback, and auth.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyzss/matchmaker-ai/internal/config"
	"github.com/nyzss/matchmaker-ai/internal/db"
	"github.com/nyzss/matchmaker-ai/internal/server/middleware"
	"github.com/nyzss/matchmaker-ai/internal/server/ratelimit"
)

// Store is the persistence surface the HTTP handlers depend on. *db.DB
// implements it.
type Store interface {
	ListJobs(ctx context.Context) ([]db.Job, error)
	CreateJob(ctx context.Context, title, description, company string) (*db.Job, error)
	ListApplications(ctx context.Context) ([]db.Application, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*db.Application, error)
}

// FeedbackIngester resolves an application from an interactive callback.
// *pipeline.Pipeline implements it.
type FeedbackIngester interface {
	IngestFeedback(ctx context.Context, actionID, feedbackText string) error
}

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	store       Store
	feedback    FeedbackIngester
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	logger      *zap.Logger
}

// New creates a server. The caller owns the database connection and the
// pipeline; the server only routes to them.
func New(cfg *config.Config, store Store, users UserStore, feedback FeedbackIngester, logger *zap.Logger) (*Server, error) {
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}

	s := &Server{
		store:       store,
		feedback:    feedback,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		jwtService:  NewJWTService(cfg.JWTSecret, cfg.JWTExpirationHours),
		logger:      logger,
	}
	s.userService = NewUserService(users, passwordConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	requireAuth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)
	mux.Handle("POST /api/auth/logout", requireAuth(http.HandlerFunc(s.authHandler.Logout)))

	mux.Handle("GET /api/jobs", requireAuth(http.HandlerFunc(s.handleListJobs)))
	mux.Handle("POST /api/jobs", requireAuth(http.HandlerFunc(s.handleCreateJob)))
	mux.Handle("GET /api/applications", requireAuth(http.HandlerFunc(s.handleListApplications)))
	mux.Handle("GET /api/applications/{id}", requireAuth(http.HandlerFunc(s.handleGetApplication)))
	mux.Handle("POST /api/applications/{id}/feedback", requireAuth(http.HandlerFunc(s.handleFeedback)))

	// Slack posts interaction payloads here; it authenticates per request,
	// not with a bearer token.
	mux.HandleFunc("POST /api/slack/interactions", s.handleSlackInteraction)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests. It blocks until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients that exceed their request budget.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		}
		if !allowed {
			if info.RetryAfter > 0 {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
			}
			s.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID identifies a client by IP for rate limiting.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
