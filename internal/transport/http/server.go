// Package httpapi exposes the coach and the journal over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tradecoach/internal/journal"
	"tradecoach/internal/logging"
	"tradecoach/internal/performance"
	"tradecoach/internal/resilience"
)

// Server serves the tradecoach API.
type Server struct {
	addr   string
	router *gin.Engine
	logger zerolog.Logger
}

// ServerConfig describes the server's dependencies.
type ServerConfig struct {
	Addr    string
	Journal *journal.Service
	Health  *resilience.HealthChecker
	// Limiter throttles analysis requests. Nil disables limiting.
	Limiter *performance.RateLimiter
	Logger  zerolog.Logger
}

// NewServer builds the router.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Journal == nil {
		return nil, errors.New("http server requires a journal service")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Health == nil {
		cfg.Health = resilience.NewHealthChecker()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	h := &Handler{journal: cfg.Journal, health: cfg.Health, limiter: cfg.Limiter}
	h.RegisterRoutes(router)

	return &Server{addr: cfg.Addr, router: router, logger: cfg.Logger}, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info().Str("addr", s.addr).Msg("HTTP server listening")

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		s.logger.Info().Msg("HTTP server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

// requestLogger tags each request with an ID and logs it once it completes.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		reqLogger := logging.WithRequestID(logger, requestID)
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), reqLogger))

		c.Next()

		var err error
		if len(c.Errors) > 0 {
			err = c.Errors.Last()
		}
		logging.LogAPICall(reqLogger.With().Int("status", c.Writer.Status()).Logger(),
			c.Request.Method, c.FullPath(), time.Since(start), err)
	}
}
