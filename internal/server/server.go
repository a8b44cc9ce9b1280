// Package server exposes the analysis pipeline over a small JSON API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/medflow-cli/internal/agents"
	"github.com/KaramelBytes/medflow-cli/internal/ai"
	"github.com/KaramelBytes/medflow-cli/internal/logger"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server holds the state the handlers share.
type Server struct {
	Store *Store
	// Runtime may be nil; AI endpoints then answer 503.
	Runtime ai.Runtime
	Model   string
	Specs   []agents.Spec
	Limiter *rate.Limiter
	// MaxNodes is the graph default when the query does not set one.
	MaxNodes int
	// MaxContextTokens caps each serialized agent input; 0 disables.
	MaxContextTokens int
	// BodyLimit bounds request bodies, e.g. "64M". Empty uses DefaultBodyLimit.
	BodyLimit string
}

// DefaultBodyLimit bounds request bodies when BodyLimit is unset.
const DefaultBodyLimit = "64M"

// New returns a Server with an empty store.
func New() *Server {
	return &Server{Store: &Store{}}
}

// Echo builds the echo instance with middleware and routes.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	log := logger.Named("server")
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				logger.FieldPath, v.URI,
				logger.FieldStatus, v.Status,
				logger.FieldDuration, v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				fields = append(fields, logger.FieldError, v.Error)
			}
			log.Debugw("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	limit := s.BodyLimit
	if limit == "" {
		limit = DefaultBodyLimit
	}
	e.Use(middleware.BodyLimit(limit))

	s.RegisterRoutes(e)
	return e
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	e := s.Echo()
	errCh := make(chan error, 1)
	go func() {
		logger.Named("server").Infow("starting server", logger.FieldAddress, addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrapf(err, "listen on %s", addr)
		}
		return nil
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "shutdown server")
	}
	return nil
}
