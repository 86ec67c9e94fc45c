package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/api"
	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/pipeline"
	"github.com/dgallion1/docchunk/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion HTTP service",
	Long: `Start the docchunk HTTP API and its ingestion workers.

Documents submitted to POST /api/ingest are queued, converted, chunked and
stored in the SQLite chunk store. On SIGINT or SIGTERM in-flight jobs are
cancelled and the server drains before exiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.ValidateServe(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg config.Config) error {
	log := newLogger(os.Stdout, cfg)

	st, err := store.Open(ctx, cfg.DBPath, cfg.StoreBatchSize)
	if err != nil {
		return err
	}
	defer st.Close()

	be := newBackend(cfg, log)
	defer be.close()

	worker, err := newWorker(cfg, be.conv, log)
	if err != nil {
		return err
	}

	retry := pipeline.RetryPolicy{
		Attempts: uint(cfg.MaxAttempts),
		Delay:    cfg.RetryDelay,
	}
	proc := pipeline.NewProcessor(worker, st, retry, log)
	orch := pipeline.NewOrchestrator(pipeline.Options{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
	}, proc, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, st, api.Options{
		APIKey:         cfg.APIKey,
		Health:         be.health,
		Stats:          be.conv.Stats(),
		CheckExtension: cfg.Converter == config.ConverterLocal,
	}, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting docchunk", "port", cfg.Port, "converter", cfg.Converter)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		orch.Stop()
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	orch.Stop()
	return nil
}
