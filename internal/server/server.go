// Package server builds the HTTP router and owns the listening server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/api"
	"github.com/mantonx/catalog/internal/config"
	"github.com/mantonx/catalog/internal/events"
	"github.com/mantonx/catalog/internal/middleware"
	"github.com/mantonx/catalog/internal/modules/modulemanager"
	"github.com/mantonx/catalog/internal/services"
)

// Options carries what the router needs
type Options struct {
	Config   *config.Config
	Modules  *modulemanager.ModuleRegistry
	Services *services.Registry
	Bus      events.EventBus
	Logger   hclog.Logger
}

// Server wraps the HTTP server serving the router
type Server struct {
	http   *http.Server
	logger hclog.Logger
}

// SetupRouter configures and returns the main router
func SetupRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(opts.Logger.Named("http")))
	r.Use(api.ErrorMiddleware())
	r.Use(corsMiddleware(opts.Config.Server.AllowedOrigins))

	setupRoutes(r, opts)
	return r
}

// corsMiddleware answers preflight requests and echoes allowed origins
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.ToLower(o)] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[strings.ToLower(origin)]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// New creates a server for the configured address
func New(opts Options) *Server {
	cfg := opts.Config.Server
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &Server{
		http: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:      SetupRouter(opts),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: opts.Logger,
	}
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.http.Addr
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
