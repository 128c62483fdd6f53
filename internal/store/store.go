package store

import (
	"context"

	"github.com/nhle/hospital-admin/internal/model"
)

// JournalFilter controls which journal entries Recent returns.
type JournalFilter struct {
	Action     string // exact action name, e.g. "user.update"; empty = all
	FailedOnly bool
	Limit      int // 0 = default of 100
}

// Store defines the persistence interface for the local audit journal.
// It records what this console attempted against the server and is never
// read back into server state.
type Store interface {
	Record(ctx context.Context, entry model.JournalEntry) error
	Recent(ctx context.Context, filter JournalFilter) ([]model.JournalEntry, error)
	Prune(ctx context.Context, keep int) (int64, error)
	Close() error
}
