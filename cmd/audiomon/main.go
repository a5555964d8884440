// Audiomon server - monitors the selected audio input and serves levels,
// device state, and health warnings over HTTP/WebSocket
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patgov/audiomon/internal/config"
	"github.com/patgov/audiomon/internal/device"
	apperrors "github.com/patgov/audiomon/internal/errors"
	"github.com/patgov/audiomon/internal/monitor"
	"github.com/patgov/audiomon/internal/publish"
	"github.com/patgov/audiomon/internal/resilience"
	"github.com/patgov/audiomon/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// HAL init can fail transiently right after login or a coreaudiod
	// restart, so give it a few attempts before giving up.
	backend := device.NewPortAudioBackend()
	err = resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
		if err := backend.Initialize(); err != nil {
			return apperrors.Wrap(err, apperrors.CodeHALError, "audio backend init")
		}
		return nil
	})
	if err != nil {
		slog.Error("failed to initialize audio backend", "error", err)
		os.Exit(1)
	}
	defer func() { _ = backend.Terminate() }()

	mon := monitor.New(backend,
		monitor.WithParams(cfg.MonitorParams()),
		monitor.WithClassifierParams(cfg.ClassifierParams()),
		monitor.WithWatchdogParams(cfg.WatchdogParams()),
		monitor.WithPinSystemDefault(cfg.PinSystemDefault),
		monitor.WithLastSelectedUID(cfg.LastSelectedUID),
		monitor.WithRegistryOptions(
			device.WithPollInterval(cfg.PollInterval()),
			device.WithExcluded(cfg.ExcludedDevices),
		))

	go mon.Run(ctx)
	mon.Start()

	// Optional NATS mirror
	if cfg.NATSURL != "" {
		pub, err := publish.Connect(cfg.NATSURL)
		if err != nil {
			slog.Warn("NATS publisher unavailable", "error", err)
		} else {
			defer pub.Close()
			go pub.Run(ctx, mon)
		}
	}

	srv := server.New(mon, server.WithLevelRateHz(cfg.LevelRateHz))
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("audiomon server starting", "http", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	slog.Info("shutdown complete")
}

func logLevel(name string) slog.Level {
	switch name {
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
