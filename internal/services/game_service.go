package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quadra/internal/core"
	"quadra/internal/metrics"
	"quadra/internal/scheduler"
	"quadra/internal/storage"
)

// GameService is the single owner of the upcoming-games window. All reads
// and RSVP writes go through it, so every caller observes the same state
// and concurrent updates merge deterministically: a full refresh replaces
// the window wholesale (last server read wins), while an RSVP touches
// exactly one (game, member) entry and leaves the rest of the window alone.
type GameService struct {
	storage *storage.SQLiteRepository
	sched   *scheduler.Scheduler

	mu     sync.Mutex
	window []core.Game

	nextSub int
	subs    map[int]chan []core.Game
}

func NewGameService(storage *storage.SQLiteRepository, sched *scheduler.Scheduler) *GameService {
	return &GameService{
		storage: storage,
		sched:   sched,
		subs:    make(map[int]chan []core.Game),
	}
}

// Refresh reloads the window from storage, topping it up first. The fresh
// read replaces whatever the window held, including optimistic updates that
// have since been confirmed or superseded.
func (s *GameService) Refresh(ctx context.Context, actor core.Member, now time.Time) ([]core.Game, error) {
	if actor.ID == "" {
		return nil, core.ErrUnauthenticated
	}

	games, err := s.sched.ListUpcoming(ctx, actor, now)
	if err != nil {
		return nil, fmt.Errorf("refresh upcoming games: %w", err)
	}

	s.mu.Lock()
	s.window = games
	snapshot := snapshotWindow(s.window)
	s.mu.Unlock()

	s.notify(snapshot)
	return snapshot, nil
}

// Upcoming returns the current window, refreshing it on the way. The
// returned slice is a copy; callers can hold it without racing the
// coordinator.
func (s *GameService) Upcoming(ctx context.Context, actor core.Member, now time.Time) ([]core.Game, error) {
	return s.Refresh(ctx, actor, now)
}

// SetStatus records the actor's RSVP for one game. The write is an upsert,
// so tapping the same answer twice is harmless and the latest answer always
// wins. On success the cached window is patched in place for that single
// (game, member) entry rather than re-read, which is what the subscribers
// see until the next refresh.
func (s *GameService) SetStatus(ctx context.Context, actor core.Member, gameID string, status core.RSVPStatus) error {
	if actor.ID == "" {
		return core.ErrUnauthenticated
	}
	if !core.ValidRSVP(status) {
		return fmt.Errorf("rsvp status %q: %w", status, core.ErrInvalidStatus)
	}

	if err := s.storage.SetAttendance(ctx, gameID, actor.ID, status); err != nil {
		return err
	}
	metrics.RSVPUpdates.WithLabelValues(string(status)).Inc()

	s.mu.Lock()
	var snapshot []core.Game
	for i := range s.window {
		if s.window[i].ID != gameID {
			continue
		}
		if s.window[i].Attendance == nil {
			s.window[i].Attendance = map[string]core.RSVPStatus{}
		}
		s.window[i].Attendance[actor.ID] = status
		snapshot = snapshotWindow(s.window)
		break
	}
	s.mu.Unlock()

	if snapshot != nil {
		s.notify(snapshot)
	}

	slog.InfoContext(ctx, "RSVP recorded",
		"game_id", gameID, "member_id", actor.ID, "rsvp_status", status)
	return nil
}

// Attendees partitions the full roster for one game in the cached window.
// Every member appears in exactly one group; members without an answer are
// pending.
func (s *GameService) Attendees(ctx context.Context, actor core.Member, gameID string) (core.AttendeeGroups, error) {
	if actor.ID == "" {
		return core.AttendeeGroups{}, core.ErrUnauthenticated
	}

	s.mu.Lock()
	var game core.Game
	found := false
	for i := range s.window {
		if s.window[i].ID == gameID {
			game = snapshotGame(s.window[i])
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return core.AttendeeGroups{}, fmt.Errorf("game %s not in upcoming window: %w", gameID, core.ErrNotFound)
	}

	roster, err := s.storage.ListMembers(ctx)
	if err != nil {
		return core.AttendeeGroups{}, fmt.Errorf("load roster: %w", err)
	}
	return core.PartitionAttendees(game, roster), nil
}

// Subscribe registers a listener for window changes. The returned channel
// holds at most one pending snapshot; a slow listener only ever misses
// intermediate states, never the latest. The cancel func must be called to
// release the subscription.
func (s *GameService) Subscribe() (<-chan []core.Game, func()) {
	ch := make(chan []core.Game, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *GameService) notify(snapshot []core.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		// Replace a stale pending snapshot instead of blocking.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

func snapshotWindow(games []core.Game) []core.Game {
	out := make([]core.Game, len(games))
	for i := range games {
		out[i] = snapshotGame(games[i])
	}
	return out
}

func snapshotGame(g core.Game) core.Game {
	attendance := make(map[string]core.RSVPStatus, len(g.Attendance))
	for k, v := range g.Attendance {
		attendance[k] = v
	}
	g.Attendance = attendance
	return g
}
