package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"quadra/internal/core"
	"quadra/internal/scheduler"
	"quadra/internal/storage"
)

// A Thursday morning; the next two occurrences are June 10 and June 17.
var thursday = time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)

func newGameFixture(t *testing.T) (*GameService, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "quadra.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	sched := scheduler.New(repo, nil, core.DefaultGameRule, "Quadra Principal")
	return NewGameService(repo, sched), repo
}

func seedMember(t *testing.T, repo *storage.SQLiteRepository, name, email string, role core.Role) core.Member {
	t.Helper()
	m, err := repo.CreateMember(context.Background(), core.Member{
		FullName: name, Email: email, Role: role,
	}, "x")
	if err != nil {
		t.Fatalf("seed member %s: %v", name, err)
	}
	return m
}

func TestRefreshCreatesWindowOnThursday(t *testing.T) {
	svc, repo := newGameFixture(t)
	ctx := context.Background()
	admin := seedMember(t, repo, "Admin", "admin@quadra.club", core.RoleAdmin)

	games, err := svc.Refresh(ctx, admin, thursday)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2", len(games))
	}
	if core.DayKey(games[0].Date) != "2025-06-10" || core.DayKey(games[1].Date) != "2025-06-17" {
		t.Fatalf("window = %s, %s", core.DayKey(games[0].Date), core.DayKey(games[1].Date))
	}

	// A second refresh must not duplicate occurrences.
	games, err = svc.Refresh(ctx, admin, thursday)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 2 {
		t.Fatalf("after second refresh got %d games, want 2", len(games))
	}
}

func TestRefreshAsRegularMemberCreatesNothing(t *testing.T) {
	svc, repo := newGameFixture(t)
	ctx := context.Background()
	player := seedMember(t, repo, "Bruno", "bruno@quadra.club", core.RoleUser)

	games, err := svc.Refresh(ctx, player, thursday)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(games) != 0 {
		t.Fatalf("regular member refresh created %d games", len(games))
	}
}

func TestRefreshRequiresAuthentication(t *testing.T) {
	svc, _ := newGameFixture(t)
	if _, err := svc.Refresh(context.Background(), core.Member{}, thursday); !errors.Is(err, core.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestSetStatusPatchesSingleEntry(t *testing.T) {
	svc, repo := newGameFixture(t)
	ctx := context.Background()
	admin := seedMember(t, repo, "Admin", "admin@quadra.club", core.RoleAdmin)
	ana := seedMember(t, repo, "Ana", "ana@quadra.club", core.RoleUser)
	bruno := seedMember(t, repo, "Bruno", "bruno@quadra.club", core.RoleUser)

	games, err := svc.Refresh(ctx, admin, thursday)
	if err != nil {
		t.Fatal(err)
	}
	gameID := games[0].ID

	if err := svc.SetStatus(ctx, bruno, gameID, core.StatusConfirmed); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	// Ana flips twice; her last answer wins and Bruno's entry is untouched.
	if err := svc.SetStatus(ctx, ana, gameID, core.StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetStatus(ctx, ana, gameID, core.StatusDeclined); err != nil {
		t.Fatal(err)
	}

	g, err := repo.GetGame(ctx, gameID)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.StatusFor(ana.ID); got != core.StatusDeclined {
		t.Errorf("ana status = %s, want declined", got)
	}
	if got := g.StatusFor(bruno.ID); got != core.StatusConfirmed {
		t.Errorf("bruno status = %s, want confirmed", got)
	}
}

func TestSetStatusValidation(t *testing.T) {
	svc, repo := newGameFixture(t)
	ctx := context.Background()
	admin := seedMember(t, repo, "Admin", "admin@quadra.club", core.RoleAdmin)

	games, err := svc.Refresh(ctx, admin, thursday)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.SetStatus(ctx, core.Member{}, games[0].ID, core.StatusConfirmed); !errors.Is(err, core.ErrUnauthenticated) {
		t.Errorf("unauthenticated: err = %v", err)
	}
	if err := svc.SetStatus(ctx, admin, games[0].ID, core.StatusPending); !errors.Is(err, core.ErrInvalidStatus) {
		t.Errorf("pending write: err = %v, want ErrInvalidStatus", err)
	}
	if err := svc.SetStatus(ctx, admin, "no-such-game", core.StatusConfirmed); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown game: err = %v, want ErrNotFound", err)
	}
}

func TestAttendeesPartitionsWholeRoster(t *testing.T) {
	svc, repo := newGameFixture(t)
	ctx := context.Background()
	admin := seedMember(t, repo, "Admin", "admin@quadra.club", core.RoleAdmin)
	ana := seedMember(t, repo, "Ana", "ana@quadra.club", core.RoleUser)
	bruno := seedMember(t, repo, "Bruno", "bruno@quadra.club", core.RoleUser)
	seedMember(t, repo, "Carla", "carla@quadra.club", core.RoleUser)

	games, err := svc.Refresh(ctx, admin, thursday)
	if err != nil {
		t.Fatal(err)
	}
	gameID := games[0].ID

	if err := svc.SetStatus(ctx, ana, gameID, core.StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetStatus(ctx, bruno, gameID, core.StatusDeclined); err != nil {
		t.Fatal(err)
	}

	groups, err := svc.Attendees(ctx, admin, gameID)
	if err != nil {
		t.Fatalf("Attendees: %v", err)
	}
	if len(groups.Confirmed) != 1 || groups.Confirmed[0].ID != ana.ID {
		t.Errorf("confirmed = %+v", groups.Confirmed)
	}
	if len(groups.Declined) != 1 || groups.Declined[0].ID != bruno.ID {
		t.Errorf("declined = %+v", groups.Declined)
	}
	// Admin and Carla never answered; both default to pending.
	if len(groups.Pending) != 2 {
		t.Errorf("pending = %+v, want 2 members", groups.Pending)
	}
	total := len(groups.Confirmed) + len(groups.Declined) + len(groups.Pending)
	if total != 4 {
		t.Errorf("groups cover %d members, want 4", total)
	}
}

func TestAttendeesOutsideWindowIsNotFound(t *testing.T) {
	svc, repo := newGameFixture(t)
	ctx := context.Background()
	admin := seedMember(t, repo, "Admin", "admin@quadra.club", core.RoleAdmin)

	if _, err := svc.Refresh(ctx, admin, thursday); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Attendees(ctx, admin, "stale-game-id"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubscribersSeeRSVPThenRefreshWins(t *testing.T) {
	svc, repo := newGameFixture(t)
	ctx := context.Background()
	admin := seedMember(t, repo, "Admin", "admin@quadra.club", core.RoleAdmin)

	games, err := svc.Refresh(ctx, admin, thursday)
	if err != nil {
		t.Fatal(err)
	}
	gameID := games[0].ID

	ch, cancel := svc.Subscribe()
	defer cancel()

	if err := svc.SetStatus(ctx, admin, gameID, core.StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	snapshot := <-ch
	if got := snapshot[0].StatusFor(admin.ID); got != core.StatusConfirmed {
		t.Fatalf("optimistic snapshot status = %s, want confirmed", got)
	}

	// A later refresh replaces the window wholesale with the server state,
	// which here confirms the same answer.
	if _, err := svc.Refresh(ctx, admin, thursday); err != nil {
		t.Fatal(err)
	}
	snapshot = <-ch
	if got := snapshot[0].StatusFor(admin.ID); got != core.StatusConfirmed {
		t.Fatalf("refreshed snapshot status = %s, want confirmed", got)
	}
}
