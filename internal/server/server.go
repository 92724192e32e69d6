// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/curio-dev/curio/pkg/health"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    RateLimitConfig

	// TrustedProxies lists CIDR ranges whose X-Forwarded-For headers are
	// believed. Empty means forwarded headers are ignored entirely.
	TrustedProxies []string

	// SearchDefaultK fills in k for search requests that omit it;
	// SearchMaxK caps what a request may ask for.
	SearchDefaultK int
	SearchMaxK     int
}

// Server wraps a chi router with a huma API and an HTTP server.
type Server struct {
	router   chi.Router
	api      huma.API
	cfg      Config
	services *Services
	limiter  *rateLimiter
}

// New creates a Server with chi router, huma API, health endpoint, and CORS.
func New(cfg Config) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, curioerr.New(curioerr.CodeServerConfigInvalid, "listen address is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Batch embedding requests wait on the model provider, which can
		// take well over a minute for a full batch.
		cfg.WriteTimeout = 120 * time.Second
	}
	if cfg.SearchDefaultK <= 0 {
		cfg.SearchDefaultK = 10
	}
	if cfg.SearchMaxK < cfg.SearchDefaultK {
		cfg.SearchMaxK = cfg.SearchDefaultK
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	limiter := newRateLimiter(cfg.RateLimit)

	// Middleware. Client IP resolution must run before the rate limiter
	// so proxied deployments limit the real client, not the proxy.
	r.Use(middleware.Recoverer)
	if len(cfg.TrustedProxies) > 0 {
		trusted, err := parseTrustedProxies(cfg.TrustedProxies)
		if err != nil {
			return nil, err
		}
		r.Use(trustedProxyRealIP(trusted))
	}
	if limiter != nil {
		r.Use(limiter.middleware)
	}
	r.Use(corsMiddleware(cfg.CORSOrigins))

	// Huma API with OpenAPI spec
	humaConfig := huma.DefaultConfig("Curio", "0.1.0")
	humaConfig.Info.Description = "Semantic search over museum collection data"
	api := humachi.New(r, humaConfig)

	s := &Server{
		router:  r,
		api:     api,
		cfg:     cfg,
		limiter: limiter,
	}

	// Health endpoint. Registered as a method so it picks up provider
	// status once RegisterServices has run.
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, s.handleHealth)

	return s, nil
}

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*HealthResponse, error) {
	body := HealthBody{Status: "ok"}
	if s.services != nil && s.services.Embedding != nil {
		emb := s.services.Embedding
		eh := &EmbeddingHealth{
			Provider:   emb.Provider,
			Model:      emb.Model,
			Dimensions: emb.Dimensions,
		}
		if emb.Tracker != nil {
			eh.Upstream = emb.Tracker.Metrics()
		} else {
			// No tracker configured means nothing has flagged the provider.
			eh.Upstream = health.Metrics{Available: true}
		}
		body.Embedding = eh
	}
	return &HealthResponse{Body: body}, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API for registering additional operations.
func (s *Server) API() huma.API {
	return s.api
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return curioerr.Errorf(curioerr.CodeServerStartFailure, "listening on %s: %w", s.cfg.ListenAddr, err)
	}

	if s.limiter != nil {
		sweepDone := make(chan struct{})
		defer close(sweepDone)
		go s.limiter.run(sweepDone)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return curioerr.Errorf(curioerr.CodeServerInternalFailure, "shutting down: %w", err)
	}

	return <-errCh
}

// HealthBody is the JSON body of the health endpoint response.
type HealthBody struct {
	Status    string           `json:"status" example:"ok" doc:"Health status"`
	Embedding *EmbeddingHealth `json:"embedding,omitempty" doc:"Embedding provider status"`
}

// EmbeddingHealth reports the configured embedding provider and whether
// its upstream is currently answering.
type EmbeddingHealth struct {
	Provider   string         `json:"provider" doc:"Configured embedding provider"`
	Model      string         `json:"model" doc:"Embedding model in use"`
	Dimensions int            `json:"dimensions" doc:"Vector width"`
	Upstream   health.Metrics `json:"upstream" doc:"Provider availability"`
}

// HealthResponse wraps the health check response.
type HealthResponse struct {
	Body HealthBody
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
