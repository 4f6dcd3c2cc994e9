package store

import "context"

// Store is the record store gateway: one logical table of repair records
// behind four operations plus a full scan for derived views. Implementations
// must order every result set by created_at descending (most recent first),
// assign ID and CreatedAt on insert, and enforce Record.Validate on both
// Insert and Update before touching the table.
type Store interface {
	// Select returns the records matching the predicate, newest first.
	// An empty predicate returns all records.
	Select(ctx context.Context, p Predicate) ([]Record, error)

	// Insert stores a new record and returns its assigned ID.
	Insert(ctx context.Context, r Record) (int64, error)

	// Update replaces all client-mutable fields of the record with the
	// given ID. Last write wins; no version check is performed.
	Update(ctx context.Context, id int64, r Record) error

	// Delete removes the record with the given ID.
	Delete(ctx context.Context, id int64) error

	// All returns every record, newest first.
	All(ctx context.Context) ([]Record, error)

	// Close releases the underlying connection resources.
	Close() error
}
