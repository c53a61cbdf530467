package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/complyloop/ai-director-gateway/gateway"
	"github.com/complyloop/ai-director-gateway/gateway/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	listen := flag.String("listen", "", "listen address (overrides config)")
	flag.Parse()

	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.WithField("error", err.Error()).Fatal("Failed to load config")
		}
		logger.WithField("path", *configPath).Info("No config file found, using defaults")
		cfg = config.Default()
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	gw := gateway.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := config.Watch(ctx, *configPath, logger, gw.ApplyConfig); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithField("error", err.Error()).Warn("Config watcher stopped")
		}
	}()

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: gw,
	}

	go func() {
		logger.WithField("listen", cfg.Listen).Info("AI Director gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("error", err.Error()).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithField("error", err.Error()).Warn("Shutdown did not complete cleanly")
	}
}
