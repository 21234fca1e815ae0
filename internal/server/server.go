package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/browserlog/browserlog/internal/config"
	"github.com/browserlog/browserlog/internal/handler"
	"github.com/browserlog/browserlog/internal/logstore"
	"github.com/browserlog/browserlog/internal/ratelimit"
)

// Server holds the Echo app and dependencies.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config
	Log    zerolog.Logger
}

// New builds the Echo server and registers routes. The caller provides the
// process-lifetime store and limiter singletons.
func New(cfg *config.Config, store *logstore.Store, limiter *ratelimit.Limiter, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover(), middleware.Logger())

	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.Server.IdleTimeout) * time.Second

	loggerHandler := &handler.LoggerHandler{
		Enabled:    cfg.Telemetry.Enabled,
		Limiter:    limiter,
		Store:      store,
		Log:        log,
		LogDenials: cfg.RateLimit.LogDenials,
	}

	// Telemetry ingestion. Method dispatch happens inside the handler so
	// non-POST methods get the documented 405 body instead of Echo's default.
	e.Any("/logger", loggerHandler.Handle)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":          "ok",
			"telemetry":       cfg.Telemetry.Enabled,
			"application_log": store.ActivePath(logstore.CategoryApplication),
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{Echo: e, Config: cfg, Log: log}
}

// Start starts the HTTP server. Blocks until the context is cancelled or the
// server fails. On context cancel, Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Shutdown(context.Background())
	}()
	addr := ":" + s.Config.Server.Port
	s.Log.Info().Str("addr", addr).Msg("starting telemetry server")
	return s.Echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
