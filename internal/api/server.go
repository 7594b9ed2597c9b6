package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/danbi-garden/danbi/internal/api/middleware"
	"github.com/danbi-garden/danbi/internal/garden"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/observability"
)

// Server is the HTTP shell. It owns the Echo instance and forwards every
// request to the garden service.
type Server struct {
	echo   *echo.Echo
	config *Config
	log    logger.Logger

	garden  *garden.Service
	metrics *observability.Metrics

	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(log logger.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// WithMetrics exposes the registry on /metrics when the config allows it.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// New creates the HTTP server.
func New(cfg *Config, svc *garden.Service, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	if svc == nil {
		return nil, errors.New("garden service is required")
	}

	s := &Server{
		config:    cfg,
		garden:    svc,
		log:       logger.NewDiscardLogger(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Module("api")

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = cfg.Debug
	s.echo.HTTPErrorHandler = s.httpErrorHandler

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(echomw.RequestID())
	s.echo.Use(mw.TraceContext())
	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.log, mw.SkipPaths("/health", "/metrics")))
	s.echo.Use(echomw.BodyLimit(s.config.BodyLimit))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	if s.config.Metrics && s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	v1 := s.echo.Group("/api/v1")

	v1.GET("/summary", s.getSummary)
	v1.GET("/plants", s.listPlants)
	v1.POST("/plants", s.createPlant)
	v1.PUT("/plants/order", s.reorderPlants)
	v1.GET("/plants/:id", s.getPlant)
	v1.PATCH("/plants/:id", s.updatePlant)
	v1.DELETE("/plants/:id", s.deletePlant)
	v1.POST("/plants/:id/water", s.waterPlant)
	v1.GET("/plants/:id/image", s.getPlantImage)

	v1.POST("/identify", s.identifyPhoto)
	v1.GET("/care", s.getCare)
	v1.GET("/species", s.searchSpecies)

	v1.GET("/reminders", s.listReminders)
	v1.PUT("/settings/notifications", s.setNotifications)
	v1.POST("/foreground", s.foreground)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.echo.Server.ReadTimeout = s.config.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.IdleTimeout

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", logger.String("address", s.config.Listen))
		if err := s.echo.Start(s.config.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("server shutdown complete")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
