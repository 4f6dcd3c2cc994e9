package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yegors/cctv-repairs/internal/store"
	"github.com/yegors/cctv-repairs/pkg/logger"
)

// Store is a repair record store backed by a remote managed Postgres
// database. This is the production backend; the table is expected to exist
// (managed-service deployments own their own schema), but New creates it
// when it does not.
type Store struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// New connects to the database described by dsn and verifies the schema
func New(ctx context.Context, dsn string, log *logger.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &Store{
		pool:   pool,
		logger: log.Named("postgres-store"),
	}

	if err := s.initDB(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initDB(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS repairs (
			id BIGSERIAL PRIMARY KEY,
			region TEXT NOT NULL,
			site_name TEXT NOT NULL,
			repair_year INTEGER NOT NULL,
			repair_month INTEGER NOT NULL,
			repair_detail TEXT NOT NULL DEFAULT '',
			camera_type TEXT NOT NULL DEFAULT '',
			inspector TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create repairs table: %w", err)
	}
	return nil
}

const selectColumns = `id, region, site_name, repair_year, repair_month, repair_detail, camera_type, inspector, created_at`

// Select returns the records matching the predicate, newest first
func (s *Store) Select(ctx context.Context, p store.Predicate) ([]store.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM repairs`

	where, args := renderPredicate(p)
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &store.StoreError{Op: "select", Err: err}
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		var r store.Record
		if err := rows.Scan(
			&r.ID,
			&r.Region,
			&r.SiteName,
			&r.RepairYear,
			&r.RepairMonth,
			&r.RepairDetail,
			&r.CameraType,
			&r.Inspector,
			&r.CreatedAt,
		); err != nil {
			return nil, &store.StoreError{Op: "select", Err: fmt.Errorf("failed to scan record: %w", err)}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StoreError{Op: "select", Err: err}
	}

	return records, nil
}

// All returns every record, newest first
func (s *Store) All(ctx context.Context) ([]store.Record, error) {
	return s.Select(ctx, store.Predicate{})
}

// Insert stores a new record and returns its assigned ID
func (s *Store) Insert(ctx context.Context, r store.Record) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO repairs
		(region, site_name, repair_year, repair_month, repair_detail, camera_type, inspector)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		r.Region,
		r.SiteName,
		r.RepairYear,
		r.RepairMonth,
		r.RepairDetail,
		r.CameraType,
		r.Inspector,
	).Scan(&id)
	if err != nil {
		return 0, &store.StoreError{Op: "insert", Err: err}
	}

	return id, nil
}

// Update replaces the client-mutable fields of the record with the given ID
func (s *Store) Update(ctx context.Context, id int64, r store.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE repairs
		SET region = $1, site_name = $2, repair_year = $3, repair_month = $4, repair_detail = $5, camera_type = $6, inspector = $7
		WHERE id = $8`,
		r.Region,
		r.SiteName,
		r.RepairYear,
		r.RepairMonth,
		r.RepairDetail,
		r.CameraType,
		r.Inspector,
		id,
	)
	if err != nil {
		return &store.StoreError{Op: "update", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &store.StoreError{Op: "update", Err: fmt.Errorf("%w: id %d", store.ErrNotFound, id)}
	}

	return nil
}

// Delete removes the record with the given ID
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM repairs WHERE id = $1`, id)
	if err != nil {
		return &store.StoreError{Op: "delete", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &store.StoreError{Op: "delete", Err: fmt.Errorf("%w: id %d", store.ErrNotFound, id)}
	}

	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// renderPredicate renders a predicate to a WHERE clause body with $n
// placeholders and its arguments
func renderPredicate(p store.Predicate) (string, []any) {
	if p.Empty() {
		return "", nil
	}

	combiner := " AND "
	if p.MatchAny {
		combiner = " OR "
	}

	parts := make([]string, 0, len(p.Conditions))
	args := make([]any, 0, len(p.Conditions))
	for i, c := range p.Conditions {
		parts = append(parts, fmt.Sprintf("%s = $%d", c.Field, i+1))
		args = append(args, c.Value)
	}

	return strings.Join(parts, combiner), args
}

// Compile-time check that Store satisfies the gateway contract
var _ store.Store = (*Store)(nil)
