package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expenza/internal/cli"
	"expenza/internal/core"
	"expenza/internal/events"
	apphttp "expenza/internal/http"
	"expenza/internal/persist"
	"expenza/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("expenza")

	cfg := cli.LoadAndValidateConfig(logger)

	kv := cli.OpenKV(logger, cfg.SQLiteDBPath)
	defer kv.Close()

	st := store.New(core.UUIDGenerator{}, time.Now, persist.NewSnapshots(kv))
	if err := st.Restore(context.Background()); err != nil {
		// A corrupt or unreadable database should not prevent startup; the
		// store falls back to the default dataset.
		logger.Warn("Failed to restore dataset, starting with defaults", "error", err)
	}

	// Publish dataset changes for the archive worker. The feed is optional
	// and publish failures never affect the mutation that triggered them.
	if cfg.AMQPURL != "" {
		eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Change feed disabled, AMQP unavailable", "error", err)
		} else {
			defer eventsClient.Close()
			st.Subscribe(func(ch store.Change) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := eventsClient.PublishDatasetChange(ctx, ch.Op, ch.EntityID); err != nil {
					logger.Warn("Failed to publish dataset change", "error", err, "op", ch.Op)
				}
			})
			logger.Info("Change feed enabled", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("Change feed disabled, no AMQP_URL configured")
	}

	srv := apphttp.NewServer(":"+cfg.Port, st, time.Now)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
