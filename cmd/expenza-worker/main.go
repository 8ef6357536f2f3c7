package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expenza/internal/cli"
	"expenza/internal/events"
	"expenza/internal/persist"
	"expenza/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("expenza-worker")

	logger.Info("Starting expenza-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the archive worker")
		os.Exit(1)
	}

	kv := cli.OpenKV(logger, cfg.SQLiteDBPath)
	defer kv.Close()

	eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer eventsClient.Close()

	archiver := worker.NewArchiver(persist.NewSnapshots(kv), cfg.ArchiveDir, time.Now)

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	// Archive on every dataset change pushed through the feed.
	g.Go(func() error {
		err := eventsClient.ConsumeDatasetChanges(ctx, archiver.HandleChange)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Periodic safety net for changes the feed missed.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ArchiveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				archiveCtx, archiveCancel := context.WithTimeout(ctx, 30*time.Second)
				path, err := archiver.Archive(archiveCtx)
				archiveCancel()
				if err != nil {
					logger.Error("Periodic archive failed", "error", err)
					continue
				}
				logger.Info("Periodic archive written", "path", path)
			}
		}
	})

	logger.Info("Worker started",
		"queue", cfg.AMQPQueue, "archive_dir", cfg.ArchiveDir, "interval", cfg.ArchiveInterval.String())

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
