package main

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrevent/internal/app"
	"hrevent/internal/config"
	"hrevent/internal/i18n"
	httpTransport "hrevent/internal/transport/http"
)

//go:embed web
var webFS embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting hr event server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"locale", cfg.Event.DefaultLocale,
	)

	defaultLabel := i18n.GroupLabel(i18n.Printer(i18n.MustParse(cfg.Event.DefaultLocale)))

	hub := app.NewEventHub(app.HubOptions{
		CodeLength:        cfg.Event.EventCodeLength,
		StaleEventTimeout: cfg.Event.StaleEventTimeout,
		MaxParticipants:   cfg.Event.MaxParticipants,
		Timing: app.Timing{
			SpinDuration:     cfg.Event.SpinDuration,
			SpinInitialDelay: cfg.Event.SpinInitialDelay,
			SpinSlowdownStep: cfg.Event.SpinSlowdownStep,
			GroupingDelay:    cfg.Event.GroupingDelay,
		},
		Label: defaultLabel,
	}, logger)
	defer hub.Close()

	server := httpTransport.NewServer(cfg, hub, logger, webFS)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
