package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/scanbook/internal/api"
	"github.com/dgallion1/scanbook/internal/config"
	"github.com/dgallion1/scanbook/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dictionaries, storage and the recognizer are shared by every worker.
	res, err := pipeline.Setup(cfg, log)
	if err != nil {
		log.Error("setup failed", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(pipeline.Options{
		Workers:   cfg.WorkerCount,
		QueueSize: cfg.MaxQueueSize,
		JobTTL:    cfg.JobTTL,
	}, res.Converter, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, res.Storage, res.OCRStats, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 5 * time.Minute, // large scans over slow links
		// No write timeout: progress streams stay open for the whole job.
		IdleTimeout: 60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting scanbook",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"ocr_engine", cfg.OCREngine,
		"storage", cfg.StorageAdapter,
	)
	if err := serve(sigCtx, httpServer, orch, res, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

type stopper interface {
	Stop()
}

// serve runs httpServer until ctx is done, then shuts down in order: the
// orchestrator first so queued jobs are failed and progress streams end,
// then the HTTP server, then the shared resources. It returns only after
// all three have finished.
func serve(ctx context.Context, httpServer *http.Server, orch stopper, res io.Closer, log *slog.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	var err error
	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		log.Info("shutting down...")
	}

	orch.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		log.Warn("http shutdown", "error", serr)
	}

	if cerr := res.Close(); cerr != nil {
		log.Warn("close resources", "error", cerr)
	}
	return err
}
