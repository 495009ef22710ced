package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"quadra/internal/core"
	"quadra/internal/storage"
)

func newFinanceFixture(t *testing.T) (*FinanceService, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "quadra.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewFinanceService(repo, nil), repo
}

func addTx(t *testing.T, svc *FinanceService, actor core.Member, typ core.TransactionType, cents int64, date time.Time) core.Transaction {
	t.Helper()
	tx, err := svc.AddTransaction(context.Background(), actor, core.Transaction{
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: "mensalidade",
		Category:    "dues",
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	return tx
}

func TestBalanceIsAllTimeButTotalsAreMonthly(t *testing.T) {
	svc, repo := newFinanceFixture(t)
	ctx := context.Background()
	ana := seedMember(t, repo, "Ana", "ana@quadra.club", core.RoleUser)

	jan := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)

	addTx(t, svc, ana, core.Income, 10000, jan)
	addTx(t, svc, ana, core.Income, 5000, feb)
	addTx(t, svc, ana, core.Expense, 3000, jan)

	balance, err := svc.Balance(ctx, ana)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	// All three months fold into the balance regardless of the selection.
	if balance.Cents != 12000 {
		t.Errorf("balance = %d cents, want 12000", balance.Cents)
	}

	totals, err := svc.MonthlyTotals(ctx, ana, "01", 2025)
	if err != nil {
		t.Fatalf("MonthlyTotals: %v", err)
	}
	if totals.Income.Cents != 10000 || totals.Expenses.Cents != 3000 {
		t.Errorf("january totals = %+v, want income 10000 / expenses 3000", totals)
	}
}

func TestAddTransactionDerivesDefaults(t *testing.T) {
	svc, repo := newFinanceFixture(t)
	ana := seedMember(t, repo, "Ana", "ana@quadra.club", core.RoleUser)

	tx := addTx(t, svc, ana, core.Income, 2500, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	if tx.MemberID != ana.ID {
		t.Errorf("member id = %s, want actor's", tx.MemberID)
	}
	if tx.Month != "03" || tx.Year != 2025 {
		t.Errorf("month/year = %s/%d, want 03/2025", tx.Month, tx.Year)
	}
	if tx.Status != core.StatusCompleted {
		t.Errorf("status = %s, want completed", tx.Status)
	}
}

func TestAddTransactionValidation(t *testing.T) {
	svc, repo := newFinanceFixture(t)
	ctx := context.Background()
	ana := seedMember(t, repo, "Ana", "ana@quadra.club", core.RoleUser)
	bruno := seedMember(t, repo, "Bruno", "bruno@quadra.club", core.RoleUser)
	admin := seedMember(t, repo, "Admin", "admin@quadra.club", core.RoleAdmin)

	if _, err := svc.AddTransaction(ctx, core.Member{}, core.Transaction{}); !errors.Is(err, core.ErrUnauthenticated) {
		t.Errorf("unauthenticated: err = %v", err)
	}

	bad := core.Transaction{Type: "loan", Amount: core.Money{Cents: 100}, Description: "x", Category: "c"}
	if _, err := svc.AddTransaction(ctx, ana, bad); !errors.Is(err, core.ErrInvalidType) {
		t.Errorf("bad type: err = %v", err)
	}

	// A regular member cannot record on behalf of someone else; an admin can.
	forBruno := core.Transaction{
		MemberID: bruno.ID, Type: core.Income, Amount: core.Money{Cents: 100},
		Description: "mensalidade", Category: "dues",
	}
	if _, err := svc.AddTransaction(ctx, ana, forBruno); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("cross-member by regular: err = %v", err)
	}
	if _, err := svc.AddTransaction(ctx, admin, forBruno); err != nil {
		t.Errorf("cross-member by admin: err = %v", err)
	}
}

func TestDeleteTransactionAuthorization(t *testing.T) {
	svc, repo := newFinanceFixture(t)
	ctx := context.Background()
	ana := seedMember(t, repo, "Ana", "ana@quadra.club", core.RoleUser)
	bruno := seedMember(t, repo, "Bruno", "bruno@quadra.club", core.RoleUser)
	admin := seedMember(t, repo, "Admin", "admin@quadra.club", core.RoleAdmin)

	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	mine := addTx(t, svc, ana, core.Income, 100, now)
	other := addTx(t, svc, ana, core.Income, 200, now)

	if err := svc.DeleteTransaction(ctx, bruno, mine.ID); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("delete by stranger: err = %v, want ErrUnauthorized", err)
	}
	if err := svc.DeleteTransaction(ctx, ana, mine.ID); err != nil {
		t.Errorf("delete by owner: err = %v", err)
	}
	if err := svc.DeleteTransaction(ctx, admin, other.ID); err != nil {
		t.Errorf("delete by admin: err = %v", err)
	}
	if err := svc.DeleteTransaction(ctx, admin, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("delete unknown: err = %v, want ErrNotFound", err)
	}

	txs, err := svc.History(ctx, ana)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Errorf("history has %d entries after deletes, want 0", len(txs))
	}
}

func TestHistoryIsNewestFirst(t *testing.T) {
	svc, repo := newFinanceFixture(t)
	ctx := context.Background()
	ana := seedMember(t, repo, "Ana", "ana@quadra.club", core.RoleUser)

	addTx(t, svc, ana, core.Income, 100, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	addTx(t, svc, ana, core.Income, 200, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	addTx(t, svc, ana, core.Income, 300, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	txs, err := svc.History(ctx, ana)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].Date.After(txs[i-1].Date) {
			t.Errorf("history out of order at %d: %v after %v", i, txs[i].Date, txs[i-1].Date)
		}
	}
}
