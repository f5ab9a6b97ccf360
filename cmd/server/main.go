package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/newslens/internal/api"
	"github.com/dgallion1/newslens/internal/app"
	"github.com/dgallion1/newslens/internal/config"
	"github.com/dgallion1/newslens/internal/logging"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}

	a.Orchestrator.Start(ctx)

	deps := api.Deps{
		Orchestrator: a.Orchestrator,
		Extractor:    a.Extractor,
		Models:       a.Catalog,
		Headlines:    a.Feed,
		LLMStats:     a.LLM.Stats,
		Metrics:      a.Metrics,
	}
	if a.Store != nil {
		deps.History = a.Store
	}
	srv := api.NewServer(deps, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}

		a.Orchestrator.Stop()
		if err := a.Close(); err != nil {
			log.Warn("close history", "error", err)
		}
	}()

	log.Info("starting newslens", "port", cfg.Port, "model", cfg.DefaultModel)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
