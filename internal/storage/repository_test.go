package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"quadra/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "quadra.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMemberLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m, err := repo.CreateMember(ctx, core.Member{FullName: "Ana Souza", Email: "ana@example.com", Phone: "11 99999-0000"}, "hash")
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	if m.ID == "" || m.Role != core.RoleUser {
		t.Fatalf("unexpected member %+v", m)
	}

	got, err := repo.GetMember(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if got.Email != "ana@example.com" {
		t.Fatalf("email = %s", got.Email)
	}

	byEmail, hash, err := repo.GetMemberByEmail(ctx, "ana@example.com")
	if err != nil || hash != "hash" || byEmail.ID != m.ID {
		t.Fatalf("GetMemberByEmail = %+v, %q, %v", byEmail, hash, err)
	}

	if err := repo.SetMemberRole(ctx, m.ID, core.RoleAdmin); err != nil {
		t.Fatalf("SetMemberRole: %v", err)
	}
	got, _ = repo.GetMember(ctx, m.ID)
	if !got.IsAdmin() {
		t.Fatal("expected admin role after promotion")
	}

	if _, err := repo.CreateMember(ctx, core.Member{FullName: "Dup", Email: "ana@example.com"}, "h"); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate email: err = %v, want ErrConflict", err)
	}
	if _, err := repo.GetMember(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing member: err = %v, want ErrNotFound", err)
	}
	if err := repo.SetMemberRole(ctx, "missing", core.RoleAdmin); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("promote missing: err = %v, want ErrNotFound", err)
	}
}

func TestListMembersOrderedByName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, m := range []core.Member{
		{FullName: "Zico", Email: "z@example.com"},
		{FullName: "Ana", Email: "a@example.com"},
	} {
		if _, err := repo.CreateMember(ctx, m, "h"); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(got) != 2 || got[0].FullName != "Ana" || got[1].FullName != "Zico" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestSessions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m, _ := repo.CreateMember(ctx, core.Member{FullName: "Ana", Email: "a@example.com"}, "h")
	if err := repo.CreateSession(ctx, "tok-1", m.ID); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := repo.GetSessionMember(ctx, "tok-1")
	if err != nil || got.ID != m.ID {
		t.Fatalf("GetSessionMember = %+v, %v", got, err)
	}

	if _, err := repo.GetSessionMember(ctx, "bogus"); !errors.Is(err, core.ErrUnauthenticated) {
		t.Fatalf("bogus token: err = %v, want ErrUnauthenticated", err)
	}

	if err := repo.DeleteSession(ctx, "tok-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := repo.GetSessionMember(ctx, "tok-1"); !errors.Is(err, core.ErrUnauthenticated) {
		t.Fatal("expected revoked session to be unauthenticated")
	}
}

func TestCreateGameIsIdempotentPerDay(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC)

	g1, created, err := repo.CreateGame(ctx, core.Game{Date: date, Location: "Quadra Principal"})
	if err != nil || !created {
		t.Fatalf("first create: %v, created=%v", err, created)
	}

	// Same calendar day, different instant: the unique day index rejects it.
	_, created, err = repo.CreateGame(ctx, core.Game{Date: date.Add(time.Hour), Location: "Quadra Principal"})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Fatal("second create for the same day must be a no-op")
	}

	games, err := repo.ListUpcomingGames(ctx, date.AddDate(0, 0, -1), 10)
	if err != nil {
		t.Fatalf("ListUpcomingGames: %v", err)
	}
	if len(games) != 1 || games[0].ID != g1.ID {
		t.Fatalf("expected exactly the first game, got %+v", games)
	}
}

func TestFindGameByDateRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC)

	if _, _, err := repo.CreateGame(ctx, core.Game{Date: date, Location: "Quadra"}); err != nil {
		t.Fatal(err)
	}

	_, found, err := repo.FindGameByDateRange(ctx, core.StartOfDay(date), core.EndOfDay(date))
	if err != nil || !found {
		t.Fatalf("same day: found=%v err=%v", found, err)
	}

	next := date.AddDate(0, 0, 1)
	_, found, err = repo.FindGameByDateRange(ctx, core.StartOfDay(next), core.EndOfDay(next))
	if err != nil || found {
		t.Fatalf("next day: found=%v err=%v, want not found", found, err)
	}
}

func TestSetAttendanceMergesPerKey(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC)

	g, _, err := repo.CreateGame(ctx, core.Game{Date: date, Location: "Quadra"})
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.SetAttendance(ctx, g.ID, "member-b", core.StatusDeclined); err != nil {
		t.Fatalf("SetAttendance b: %v", err)
	}
	if err := repo.SetAttendance(ctx, g.ID, "member-a", core.StatusConfirmed); err != nil {
		t.Fatalf("SetAttendance a: %v", err)
	}
	// Flip A twice; B must survive untouched.
	if err := repo.SetAttendance(ctx, g.ID, "member-a", core.StatusDeclined); err != nil {
		t.Fatalf("SetAttendance a again: %v", err)
	}

	got, err := repo.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if got.Attendance["member-a"] != core.StatusDeclined {
		t.Fatalf("member-a = %s, want declined", got.Attendance["member-a"])
	}
	if got.Attendance["member-b"] != core.StatusDeclined {
		t.Fatalf("member-b = %s, want declined (untouched)", got.Attendance["member-b"])
	}

	if err := repo.SetAttendance(ctx, "missing", "member-a", core.StatusConfirmed); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing game: err = %v, want ErrNotFound", err)
	}
}

func TestListUpcomingGamesOrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC)

	// Insert out of order across four weeks.
	for _, weeks := range []int{3, 0, 2, 1} {
		if _, _, err := repo.CreateGame(ctx, core.Game{Date: base.AddDate(0, 0, 7*weeks), Location: "Quadra"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.ListUpcomingGames(ctx, core.StartOfDay(base), 3)
	if err != nil {
		t.Fatalf("ListUpcomingGames: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date) {
			t.Fatalf("games out of order: %v before %v", got[i].Date, got[i-1].Date)
		}
	}
}

func TestTransactionLifecycleAndSyncFlags(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		MemberID:    "m1",
		Type:        core.Income,
		Amount:      core.Money{Cents: 2500},
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Month:       "03",
		Year:        2025,
		Description: "mensalidade",
		Category:    "dues",
		Status:      core.StatusCompleted,
	}
	saved, err := repo.CreateTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	pending, err := repo.PendingSyncTransactions(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %d, %v; want 1", len(pending), err)
	}

	if err := repo.MarkSynced(ctx, saved.ID); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, _ = repo.PendingSyncTransactions(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("pending after sync = %d, want 0", len(pending))
	}

	list, err := repo.ListTransactionsByMember(ctx, "m1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %d, %v", len(list), err)
	}
	if list[0].Amount.Cents != 2500 || list[0].Month != "03" {
		t.Fatalf("round trip mismatch: %+v", list[0])
	}

	if err := repo.DeleteTransaction(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: err = %v, want ErrNotFound", err)
	}
}
