// Package export defines the outbound ports for mirroring treasury entries
// to the shared club spreadsheet.
package export

import (
	"context"

	"quadra/internal/core"
)

type (
	// EntryWriter appends one treasury entry as a sheet row.
	EntryWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// EntryDeleter removes the row matching the entry's data. Matching is by
	// data rather than reference because the mirror keeps no row ids.
	EntryDeleter interface {
		DeleteByData(ctx context.Context, t core.Transaction) error
	}
)
