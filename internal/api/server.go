// Package api provides the HTTP API server and handlers for the reading lists service.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/readinglists-server/internal/auth"
	domainerrors "github.com/listenupapp/readinglists-server/internal/errors"
	"github.com/listenupapp/readinglists-server/internal/http/response"
	"github.com/listenupapp/readinglists-server/internal/metrics"
	"github.com/listenupapp/readinglists-server/internal/ratelimit"
	"github.com/listenupapp/readinglists-server/internal/service"
	"github.com/listenupapp/readinglists-server/internal/store"
)

// indexHint is the plain-text body of GET /.
const indexHint = "Please navigate to /books or /reading_lists to use this API"

// Deps are the collaborators a Server needs. OAuth and State may be nil,
// in which case /login and /callback are not registered. Limiter and
// Metrics may be nil to disable rate limiting and instrumentation.
type Deps struct {
	Store    *store.Store
	Services *service.Services
	Verifier *auth.Verifier
	OAuth    *auth.OAuthClient
	State    *auth.StateCodec
	Metrics  *metrics.Metrics
	Limiter  *ratelimit.KeyedRateLimiter
	Logger   *slog.Logger
}

// Options configure URL generation and cross-origin access.
type Options struct {
	PublicURL   string   // Root used for self and next links
	CORSOrigins []string // Empty disables CORS handling
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *store.Store
	services *service.Services
	verifier *auth.Verifier
	oauth    *auth.OAuthClient
	state    *auth.StateCodec
	metrics  *metrics.Metrics
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger

	root        string
	corsOrigins []string

	router *chi.Mux
	api    huma.API
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:       deps.Store,
		services:    deps.Services,
		verifier:    deps.Verifier,
		oauth:       deps.OAuth,
		state:       deps.State,
		metrics:     deps.Metrics,
		limiter:     deps.Limiter,
		logger:      logger,
		root:        strings.TrimSuffix(opts.PublicURL, "/"),
		corsOrigins: opts.CORSOrigins,
		router:      chi.NewRouter(),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Reading Lists API", "1.0.0")
	humaConfig.DocsPath = ""
	s.api = humachi.New(s.router, humaConfig)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	if s.metrics != nil {
		s.router.Use(s.metrics.Instrument)
	}
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	if len(s.corsOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleMethodNotAllowed)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.rateLimit)
		}

		r.Get("/", s.handleIndex)

		if s.oauth != nil && s.state != nil {
			r.Get("/login", s.handleLogin)
			r.Get("/callback", s.handleCallback)
		}

		r.Group(func(r chi.Router) {
			r.Use(s.negotiate)

			r.Get("/books", s.handleListBooks)
			r.With(s.requireJSON).Post("/books", s.handleCreateBook)
			r.Get("/books/{id}", s.handleGetBook)
			r.With(s.requireJSON).Put("/books/{id}", s.handleReplaceBook)
			r.With(s.requireJSON).Patch("/books/{id}", s.handlePatchBook)
			r.Delete("/books/{id}", s.handleDeleteBook)

			r.Get("/reading_lists", s.handleListReadingLists)
			r.With(s.requireJSON).Post("/reading_lists", s.handleCreateReadingList)
			r.Get("/reading_lists/{id}", s.handleGetReadingList)
			r.With(s.requireJSON).Put("/reading_lists/{id}", s.handleReplaceReadingList)
			r.With(s.requireJSON).Patch("/reading_lists/{id}", s.handlePatchReadingList)
			r.Delete("/reading_lists/{id}", s.handleDeleteReadingList)

			r.Get("/reading_lists/{id}/books", s.handleListReadingListBooks)
			r.Put("/reading_lists/{id}/books/{book_id}", s.handleAddBookToReadingList)
			r.Delete("/reading_lists/{id}/books/{book_id}", s.handleRemoveBookFromReadingList)

			r.Get("/users", s.handleListUsers)
		})
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(indexHint))
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	response.HandleError(w, domainerrors.NotFound("Not found"), s.logger)
}

// allowCandidates lists the methods checked when building an Allow header.
var allowCandidates = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	var allowed []string
	for _, method := range allowCandidates {
		if s.router.Match(chi.NewRouteContext(), method, r.URL.Path) {
			allowed = append(allowed, method)
		}
	}
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	response.HandleError(w, domainerrors.ErrMethodNotAllowed, s.logger)
}
