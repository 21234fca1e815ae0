package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/browserlog/browserlog/internal/config"
	"github.com/browserlog/browserlog/internal/logstore"
	"github.com/browserlog/browserlog/internal/ratelimit"
	"github.com/browserlog/browserlog/internal/server"
)

func main() {
	// Optional .env for local development; env variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "browserlog").Logger()

	store, err := logstore.New(cfg.Telemetry.LogDir, cfg.Telemetry.RotateMaxBytes, map[logstore.Category]string{
		logstore.CategoryApplication: cfg.Telemetry.ApplicationLog,
		logstore.CategoryTransport:   cfg.Telemetry.TransportLog,
		logstore.CategoryDatabase:    cfg.Telemetry.DatabaseLog,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("log store")
	}

	limiter := ratelimit.New(time.Duration(cfg.RateLimit.WindowSeconds)*time.Second, cfg.RateLimit.Ceiling)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, store, limiter, logger)
	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
