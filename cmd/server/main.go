package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mmuslimabdulj/meet-signal/internal/config"
	httpHandler "github.com/mmuslimabdulj/meet-signal/internal/delivery/http"
	"github.com/mmuslimabdulj/meet-signal/internal/delivery/ws"
	"github.com/mmuslimabdulj/meet-signal/internal/directory"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setupLogging(cfg)

	// Initialize dependencies
	hub := ws.NewHub()
	hub.SetLimits(cfg.MaxMessageSize, cfg.SendBufferSize, cfg.EventRate, cfg.EventBurst)
	if cfg.DirectoryURL != "" {
		hub.SetDirectory(directory.NewHTTPDirectory(cfg.DirectoryURL, cfg.DirectoryTimeout), cfg.DirectoryTimeout)
		log.Info().Str("url", cfg.DirectoryURL).Msg("user directory enabled")
	}
	go hub.Run()

	handler := httpHandler.NewHandler(hub, cfg)
	defer handler.Close()

	// Create server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Strs("origins", cfg.AllowedOrigins).Msg("signaling server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Hijacked websocket connections are not tracked by Shutdown
	hub.Stop()

	log.Info().Msg("server exited gracefully")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.Silent() {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		return
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
