// Package worker mirrors treasury transactions from SQLite to the shared
// club spreadsheet. It consumes AMQP messages for the fast path and scans
// for unsynced rows as a backup, so a lost message never loses an entry.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quadra/internal/amqp"
	"quadra/internal/core"
	"quadra/internal/export"
	"quadra/internal/metrics"
	"quadra/internal/storage"
)

type TreasuryWorker struct {
	storage   *storage.SQLiteRepository
	writer    export.EntryWriter
	deleter   export.EntryDeleter
	batchSize int
}

func NewTreasuryWorker(storage *storage.SQLiteRepository, writer export.EntryWriter, deleter export.EntryDeleter, batchSize int) *TreasuryWorker {
	return &TreasuryWorker{
		storage:   storage,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleTreasuryMessage processes one message from the sync queue. A
// returned error makes the consumer requeue the delivery.
func (w *TreasuryWorker) HandleTreasuryMessage(ctx context.Context, msg *amqp.TreasuryMessage) error {
	switch msg.Kind {
	case amqp.KindTransactionCreated:
		return w.handleCreated(ctx, msg)
	case amqp.KindTransactionDeleted:
		return w.handleDeleted(ctx, msg)
	default:
		slog.WarnContext(ctx, "Dropping message with unknown kind",
			"kind", msg.Kind, "transaction_id", msg.TransactionID)
		return nil
	}
}

func (w *TreasuryWorker) handleCreated(ctx context.Context, msg *amqp.TreasuryMessage) error {
	t, err := w.storage.GetTransaction(ctx, msg.TransactionID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before we got to it; the delete message handles the mirror.
		slog.WarnContext(ctx, "Transaction gone before sync, dropping",
			"transaction_id", msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	return w.mirror(ctx, t)
}

func (w *TreasuryWorker) handleDeleted(ctx context.Context, msg *amqp.TreasuryMessage) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No entry deleter configured, skipping sheet deletion",
			"transaction_id", msg.TransactionID)
		return nil
	}

	// The row is gone from storage; rebuild the entry from the message.
	date, err := time.Parse("2006-01-02", msg.DayKey)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping delete message with bad day key",
			"transaction_id", msg.TransactionID, "day_key", msg.DayKey, "error", err)
		return nil
	}
	t := core.Transaction{
		ID:          msg.TransactionID,
		MemberID:    msg.MemberID,
		Type:        core.TransactionType(msg.Type),
		Amount:      core.Money{Cents: msg.AmountCents},
		Date:        date,
		Month:       msg.Month,
		Year:        msg.Year,
		Description: msg.Description,
		Category:    msg.Category,
	}

	if err := w.deleter.DeleteByData(ctx, t); err != nil {
		metrics.TreasurySyncs.WithLabelValues("delete_failure").Inc()
		return fmt.Errorf("delete entry from sheet: %w", err)
	}
	metrics.TreasurySyncs.WithLabelValues("delete_success").Inc()
	slog.InfoContext(ctx, "Entry removed from sheet", "transaction_id", msg.TransactionID)
	return nil
}

func (w *TreasuryWorker) mirror(ctx context.Context, t core.Transaction) error {
	ref, err := w.writer.Append(ctx, t)
	if err != nil {
		metrics.TreasurySyncs.WithLabelValues("failure").Inc()
		if markErr := w.storage.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"transaction_id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append entry to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, t.ID); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	metrics.TreasurySyncs.WithLabelValues("success").Inc()
	slog.InfoContext(ctx, "Entry mirrored to sheet",
		"transaction_id", t.ID, "sheets_ref", ref)
	return nil
}

// ProcessPendingTransactions mirrors rows that never made it to the sheet.
// This is the backup path for lost AMQP messages.
func (w *TreasuryWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.storage.PendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	for _, t := range pending {
		if err := w.mirror(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction",
				"transaction_id", t.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog with a larger batch before
// the worker starts consuming, recovering from downtime.
func (w *TreasuryWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.PendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, t := range pending {
		if err := w.mirror(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction on startup",
				"transaction_id", t.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync check completed",
		"synced", successCount, "errors", errorCount)
	return nil
}
