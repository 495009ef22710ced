// Package scheduler maintains the rolling window of weekly game
// occurrences. The window always covers the next two occurrences of the
// club's recurring slot; anything further out does not exist yet.
package scheduler

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

// upcomingLimit caps how many occurrences a listing returns. Two come from
// the rolling window; a third slot absorbs today's game after kickoff has
// passed but before the day rolls over.
const upcomingLimit = 3

// Scheduler creates game occurrences on demand. Creation rides on the
// unique day index in storage, so concurrent schedulers racing for the same
// day produce exactly one row.
type Scheduler struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	rule       core.GameRule
	location   string
}

func New(storage *storage.SQLiteRepository, amqpClient *amqp.Client, rule core.GameRule, location string) *Scheduler {
	return &Scheduler{
		storage:    storage,
		amqpClient: amqpClient,
		rule:       rule,
		location:   location,
	}
}

// EnsureUpcoming makes sure the next and the following occurrence exist.
// Only admins create occurrences; for everyone else this is a silent no-op
// so that a regular member opening the games screen never mutates anything.
func (s *Scheduler) EnsureUpcoming(ctx context.Context, actor core.Member, now time.Time) error {
	if !actor.IsAdmin() {
		return nil
	}

	for _, date := range []time.Time{s.rule.Next(now), s.rule.Following(now)} {
		// Fast path; the unique day index makes the insert safe regardless.
		_, exists, err := s.storage.FindGameByDateRange(ctx, core.StartOfDay(date), core.EndOfDay(date))
		if err != nil {
			return fmt.Errorf("check occurrence %s: %w", core.DayKey(date), err)
		}
		if exists {
			continue
		}

		g, created, err := s.storage.CreateGame(ctx, core.Game{Date: date, Location: s.location})
		if err != nil {
			return fmt.Errorf("ensure occurrence %s: %w", core.DayKey(date), err)
		}
		if !created {
			continue
		}
		metrics.GamesCreated.Inc()
		s.publishGameCreated(ctx, g)
	}
	return nil
}

// ListUpcoming tops up the window and returns occurrences from the start of
// today onward, earliest first. Today's game stays listed until midnight
// even after kickoff.
func (s *Scheduler) ListUpcoming(ctx context.Context, actor core.Member, now time.Time) ([]core.Game, error) {
	if err := s.EnsureUpcoming(ctx, actor, now); err != nil {
		return nil, err
	}
	return s.storage.ListUpcomingGames(ctx, core.StartOfDay(now), upcomingLimit)
}

func (s *Scheduler) publishGameCreated(ctx context.Context, g core.Game) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping game created message")
		return
	}

	msg := &amqp.GameCreatedMessage{
		GameID:    g.ID,
		Date:      g.Date,
		Location:  g.Location,
		Timestamp: time.Now(),
	}
	if err := s.amqpClient.PublishGameCreated(ctx, msg); err != nil {
		// Occurrence creation already succeeded; announcements are best effort.
		slog.ErrorContext(ctx, "Failed to publish game created message",
			"game_id", g.ID, "error", err)
	}
}
