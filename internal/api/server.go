package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/event-portal/internal/auth"
	"github.com/terra-clan/event-portal/internal/config"
	"github.com/terra-clan/event-portal/internal/health"
	"github.com/terra-clan/event-portal/internal/push"
	"github.com/terra-clan/event-portal/internal/state"
)

// Server is the local read-only status facade: it serves the agent's
// reconciled state over HTTP for operators and local tooling. It
// never exposes tokens.
type Server struct {
	config      config.FacadeConfig
	router      *chi.Mux
	credentials *auth.CredentialStore
	validator   *auth.Validator
	channel     *push.Channel
	health      *health.Registry
	leaderboard *state.Leaderboard
	colleges    *state.CollegeBoard
	board       *state.TaskBoard
}

// NewServer creates the status facade server
func NewServer(
	cfg config.FacadeConfig,
	credentials *auth.CredentialStore,
	validator *auth.Validator,
	channel *push.Channel,
	registry *health.Registry,
	leaderboard *state.Leaderboard,
	colleges *state.CollegeBoard,
	board *state.TaskBoard,
) *Server {
	s := &Server{
		config:      cfg,
		credentials: credentials,
		validator:   validator,
		channel:     channel,
		health:      registry,
		leaderboard: leaderboard,
		colleges:    colleges,
		board:       board,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/v1/state", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/colleges", s.handleColleges)
		r.Get("/tasks", s.handleTasks)
		r.Get("/submissions", s.handleSubmissions)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
