package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/davidbz/cthai/internal/auth"
	"github.com/davidbz/cthai/internal/config"
	"github.com/davidbz/cthai/internal/httpserver/middleware"
	"github.com/davidbz/cthai/internal/observability"
)

// Server represents the HTTP server.
type Server struct {
	config      config.ServerConfig
	handler     *Handler
	middlewares middleware.Middleware
	verifier    *auth.Verifier
	srv         *http.Server
}

// NewServer creates a new HTTP server. A nil verifier rejects every request
// to an authenticated route.
func NewServer(
	cfg *config.ServerConfig,
	handler *Handler,
	middlewares middleware.Middleware,
	verifier *auth.Verifier,
) *Server {
	s := &Server{
		config:      *cfg,
		handler:     handler,
		middlewares: middlewares,
		verifier:    verifier,
	}

	// Create server with timeouts.
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Routes(),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}

	return s
}

// Routes builds the router with the middleware chain applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handler.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		// The relay is open like the chat page that calls it.
		r.Post("/chat", s.handler.HandleChat)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(s.verifier))

			r.Post("/generate-image", s.handler.HandleGenerateImage)
			r.Post("/generate-video", s.handler.HandleGenerateVideo)
			r.Post("/generate-audio", s.handler.HandleGenerateAudio)
			r.Post("/generate-vision", s.handler.HandleGenerateVision)

			r.Get("/artifacts", s.handler.HandleListArtifacts)

			r.Delete("/state", s.handler.HandleResetAllState)
			r.Post("/state/clear-generated", s.handler.HandleClearGenerated)
			r.Get("/state/{section}", s.handler.HandleGetState)
			r.Patch("/state/{section}", s.handler.HandlePatchState)
			r.Delete("/state/{section}", s.handler.HandleResetState)
			r.Get("/state/{section}/events", s.handler.HandleStateEvents)
		})
	})

	return s.middlewares(r)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	ctx := context.Background()
	observability.FromContext(ctx).Info("starting HTTP server", observability.Int("port", s.config.Port))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.FromContext(ctx).Info("shutting down HTTP server")

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
