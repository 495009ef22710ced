package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"quadra/internal/amqp"
	"quadra/internal/config"
	"quadra/internal/export"
	gsheet "quadra/internal/export/google"
	mem "quadra/internal/export/memory"
	"quadra/internal/log"
	"quadra/internal/storage"
	"quadra/internal/worker"
)

func main() {
	// .env is for local development; absence is fine in production.
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	slog.Info("Starting treasury-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Without a spreadsheet id the mirror runs in memory, which keeps the
	// queue drained in development without Google credentials.
	var (
		writer  export.EntryWriter
		deleter export.EntryDeleter
	)
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			slog.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer, deleter = client, client
		slog.Info("Google Sheets mirror initialized", "sheet", cfg.GoogleSheetName)
	} else {
		store := mem.New()
		writer, deleter = store, store
		slog.Info("No GOOGLE_SPREADSHEET_ID, mirroring to memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := worker.NewTreasuryWorker(repo, writer, deleter, cfg.SyncBatchSize)

	slog.Info("Performing startup sync check...")
	if err := w.StartupSyncCheck(ctx); err != nil {
		// Keep running; the periodic scan retries.
		slog.Error("Startup sync check failed", "error", err)
	}

	go func() {
		handler := func(msg *amqp.TreasuryMessage) error {
			return w.HandleTreasuryMessage(ctx, msg)
		}
		if err := amqpClient.ConsumeTreasury(ctx, handler); err != nil && err != context.Canceled {
			slog.Error("Message consumption failed", "error", err)
			cancel()
		}
	}()

	// Periodic backup scan for entries whose messages were lost.
	go func() {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.ProcessPendingTransactions(ctx); err != nil {
					slog.Error("Periodic sync failed", "error", err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context cancelled")
	}

	cancel()
	slog.Info("Worker stopped")
}
