package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/planreport/internal/api"
	"github.com/dgallion1/planreport/internal/config"
	"github.com/dgallion1/planreport/internal/events"
	"github.com/dgallion1/planreport/internal/pipeline"
	"github.com/dgallion1/planreport/internal/planstore"
	"github.com/dgallion1/planreport/internal/report"
	"github.com/dgallion1/planreport/internal/tabledb"
	"github.com/dgallion1/planreport/internal/tabledb/backend"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		log.Error("load env file", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	db, closeDB, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Error("open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	plans := planstore.New(db, log)
	ev := events.NewService(db, log)
	if cfg.AutoMigrate {
		if err := plans.Migrate(ctx); err != nil && !errors.Is(err, tabledb.ErrNoMigrate) {
			log.Error("migrate plans", "error", err)
			os.Exit(1)
		}
		if err := ev.Migrate(ctx); err != nil && !errors.Is(err, tabledb.ErrNoMigrate) {
			log.Error("migrate events", "error", err)
			os.Exit(1)
		}
	}
	if v, err := plans.SchemaVersion(ctx); err != nil {
		log.Warn("plan schema not detected", "error", err)
	} else {
		log.Info("plan schema", "version", v)
	}

	// Initialize pipeline.
	gen := report.New(log)
	orch := pipeline.NewOrchestrator(cfg, plans, gen, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(plans, ev, orch, gen, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RenderTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if err := closeDB(); err != nil {
			log.Warn("close database", "error", err)
		}
	}()

	log.Info("starting planreport", "port", cfg.Port, "driver", cfg.DBDriver)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
