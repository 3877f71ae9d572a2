package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wtag-io/wtag/pkg/auth"
	"github.com/wtag-io/wtag/pkg/httputil"
	"github.com/wtag-io/wtag/pkg/images"
	"github.com/wtag-io/wtag/pkg/observability"
	"github.com/wtag-io/wtag/pkg/tags"
)

// Server is the HTTP front of the application services.
type Server struct {
	engine   *auth.Engine
	registry *tags.Registry
	catalog  *images.Catalog
	router   *mux.Router
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// Options carries the optional server collaborators.
type Options struct {
	// Metrics enables the /metrics endpoint and per-route instrumentation
	Metrics *observability.Metrics
	// MetricsHandler serves the scrape endpoint when Metrics is set
	MetricsHandler http.Handler
	// Health serves the /healthz readiness probe
	Health *observability.HealthChecker
	// MaxBodyBytes caps request body size; zero means no cap
	MaxBodyBytes int64
}

// NewServer wires the services into a router with the standard middleware
// chain applied.
func NewServer(engine *auth.Engine, registry *tags.Registry, catalog *images.Catalog,
	logger *observability.Logger, opts Options) *Server {
	s := &Server{
		engine:   engine,
		registry: registry,
		catalog:  catalog,
		router:   mux.NewRouter(),
		logger:   logger,
		metrics:  opts.Metrics,
	}

	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.LoggingMiddleware(logger))
	s.router.Use(httputil.RecoveryMiddleware(logger))
	if opts.MaxBodyBytes > 0 {
		s.router.Use(httputil.MaxBytesMiddleware(opts.MaxBodyBytes))
	}
	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics, routePattern))
	}

	s.setupRoutes(opts)
	return s
}

func (s *Server) setupRoutes(opts Options) {
	// Auth routes
	s.router.HandleFunc("/api/v2/auth/init", s.bootstrap).Methods("GET")
	s.router.HandleFunc("/api/v2/auth/register", s.register).Methods("POST")
	s.router.HandleFunc("/api/v2/auth/login", s.login).Methods("POST")
	s.router.HandleFunc("/api/v2/auth/access-codes", s.generateAccessCode).Methods("POST")

	// Image routes
	s.router.HandleFunc("/api/v2/images", s.ingestImage).Methods("POST")
	s.router.HandleFunc("/api/v2/images", s.listImages).Methods("GET")
	s.router.HandleFunc("/api/v2/images/maintenance/thumbnails", s.regenerateThumbnails).Methods("POST")
	s.router.HandleFunc("/api/v2/images/maintenance/dedup", s.deduplicate).Methods("POST")
	s.router.HandleFunc("/api/v2/images/{hash}", s.getImage).Methods("GET")
	s.router.HandleFunc("/api/v2/images/{hash}", s.deleteImage).Methods("DELETE")
	s.router.HandleFunc("/api/v2/images/{hash}/tags", s.assignTags).Methods("PUT")

	// Tag routes
	s.router.HandleFunc("/api/v2/tags", s.listTags).Methods("GET")
	s.router.HandleFunc("/api/v2/tags", s.ensureTags).Methods("POST")

	if opts.Health != nil {
		s.router.HandleFunc("/healthz", opts.Health.Handler).Methods("GET")
	}
	if opts.Metrics != nil && opts.MetricsHandler != nil {
		s.router.Handle("/metrics", opts.MetricsHandler).Methods("GET")
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routePattern reports the matched route template so metric labels stay
// bounded regardless of path variables.
func routePattern(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

func token(r *http.Request) string {
	return r.Header.Get(TokenHeader)
}
