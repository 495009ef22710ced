package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quadra/internal/amqp"
	"quadra/internal/core"
	"quadra/internal/metrics"
	"quadra/internal/storage"
)

// FinanceService orchestrates treasury operations across SQLite and AMQP.
// Writes land in SQLite first; the sheet mirror message is best effort and
// never fails the request.
type FinanceService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewFinanceService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *FinanceService {
	return &FinanceService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// AddTransaction validates and records a treasury entry. Members record
// their own entries; only admins may record on behalf of someone else.
// Month and year default to the transaction date, status to completed.
func (s *FinanceService) AddTransaction(ctx context.Context, actor core.Member, t core.Transaction) (core.Transaction, error) {
	if actor.ID == "" {
		return core.Transaction{}, core.ErrUnauthenticated
	}
	if t.MemberID == "" {
		t.MemberID = actor.ID
	}
	if t.MemberID != actor.ID && !actor.IsAdmin() {
		return core.Transaction{}, fmt.Errorf("record for member %s: %w", t.MemberID, core.ErrUnauthorized)
	}

	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	if t.Month == "" {
		t.Month = core.MonthKey(t.Date)
	}
	if t.Year == 0 {
		t.Year = t.Date.Year()
	}
	if t.Status == "" {
		t.Status = core.StatusCompleted
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	metrics.TransactionsCreated.WithLabelValues(string(t.Type)).Inc()

	if err := s.publishTreasury(ctx, amqp.NewTransactionSyncMessage(t.ID)); err != nil {
		// Don't fail the request, the transaction is saved locally and the
		// worker's pending scan will pick it up.
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"transaction_id", t.ID, "error", err)
	}
	return t, nil
}

// DeleteTransaction removes an entry. The owner or an admin may delete;
// everyone else gets ErrUnauthorized. The delete message carries the row
// data because the row is gone by the time the worker runs.
func (s *FinanceService) DeleteTransaction(ctx context.Context, actor core.Member, id string) error {
	if actor.ID == "" {
		return core.ErrUnauthenticated
	}

	t, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if t.MemberID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrUnauthorized)
	}

	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	msg := &amqp.TreasuryMessage{
		Kind:          amqp.KindTransactionDeleted,
		TransactionID: t.ID,
		Timestamp:     time.Now(),
		MemberID:      t.MemberID,
		Type:          string(t.Type),
		AmountCents:   t.Amount.Cents,
		DayKey:        core.DayKey(t.Date),
		Month:         t.Month,
		Year:          t.Year,
		Description:   t.Description,
		Category:      t.Category,
	}
	if err := s.publishTreasury(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"transaction_id", t.ID, "error", err)
	}
	return nil
}

// History returns the actor's transactions, newest first.
func (s *FinanceService) History(ctx context.Context, actor core.Member) ([]core.Transaction, error) {
	if actor.ID == "" {
		return nil, core.ErrUnauthenticated
	}
	return s.storage.ListTransactionsByMember(ctx, actor.ID)
}

// Balance folds the actor's full history into the all-time net position.
// A load failure degrades to zero rather than erroring; the finance screen
// shows R$ 0,00 and the log carries the cause.
func (s *FinanceService) Balance(ctx context.Context, actor core.Member) (core.Money, error) {
	if actor.ID == "" {
		return core.Money{}, core.ErrUnauthenticated
	}
	txs, err := s.storage.ListTransactionsByMember(ctx, actor.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load transactions for balance",
			"member_id", actor.ID, "error", err)
		return core.Money{}, nil
	}
	return core.RunningBalance(txs), nil
}

// MonthlyTotals returns the actor's income and expense sums for one month.
// Unlike Balance, these are restricted to the selected month and year.
func (s *FinanceService) MonthlyTotals(ctx context.Context, actor core.Member, month string, year int) (core.MonthTotals, error) {
	if actor.ID == "" {
		return core.MonthTotals{}, core.ErrUnauthenticated
	}
	txs, err := s.storage.ListTransactionsByMember(ctx, actor.ID)
	if err != nil {
		return core.MonthTotals{}, fmt.Errorf("load transactions: %w", err)
	}
	return core.TotalsForMonth(txs, month, year), nil
}

func (s *FinanceService) publishTreasury(ctx context.Context, msg *amqp.TreasuryMessage) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping treasury message")
		return nil
	}
	return s.amqpClient.PublishTreasury(ctx, msg)
}
