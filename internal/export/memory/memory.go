// Package memory is an in-memory stand-in for the spreadsheet mirror, used
// in tests and local development without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"quadra/internal/core"
	"quadra/internal/export"
)

type Store struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var (
	_ export.EntryWriter  = (*Store)(nil)
	_ export.EntryDeleter = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, t)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// DeleteByData removes the first entry matching on date, description and
// amount. A missing entry is a no-op, matching the sheet adapter.
func (s *Store) DeleteByData(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if core.DayKey(row.Date) == core.DayKey(t.Date) &&
			row.Description == t.Description &&
			row.Amount.Cents == t.Amount.Cents {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of the mirrored entries.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows...)
}
