package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yegors/cctv-repairs/internal/store"
	"github.com/yegors/cctv-repairs/pkg/logger"
)

// Store is a repair record store backed by an embedded SQLite database.
// It is used for single-box deployments and as the test backend.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
}

// New opens (or creates) the SQLite database at path and prepares the schema
func New(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: log.Named("sqlite-store"),
	}

	if err := s.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initDB initializes the database tables
func (s *Store) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS repairs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			region TEXT NOT NULL,
			site_name TEXT NOT NULL,
			repair_year INTEGER NOT NULL,
			repair_month INTEGER NOT NULL,
			repair_detail TEXT NOT NULL DEFAULT '',
			camera_type TEXT NOT NULL DEFAULT '',
			inspector TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create repairs table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_repairs_region ON repairs(region)`,
		`CREATE INDEX IF NOT EXISTS idx_repairs_site_name ON repairs(site_name)`,
		`CREATE INDEX IF NOT EXISTS idx_repairs_year_month ON repairs(repair_year, repair_month)`,
		`CREATE INDEX IF NOT EXISTS idx_repairs_created_at ON repairs(created_at)`,
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create repairs index: %w", err)
		}
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

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &store.StoreError{Op: "select", Err: err}
	}
	defer rows.Close()

	return scanRecordRows(rows)
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

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO repairs
		(region, site_name, repair_year, repair_month, repair_detail, camera_type, inspector, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Region,
		r.SiteName,
		r.RepairYear,
		r.RepairMonth,
		r.RepairDetail,
		r.CameraType,
		r.Inspector,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, &store.StoreError{Op: "insert", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, &store.StoreError{Op: "insert", Err: fmt.Errorf("failed to get last insert ID: %w", err)}
	}

	return id, nil
}

// Update replaces the client-mutable fields of the record with the given ID
func (s *Store) Update(ctx context.Context, id int64, r store.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE repairs
		SET region = ?, site_name = ?, repair_year = ?, repair_month = ?, repair_detail = ?, camera_type = ?, inspector = ?
		WHERE id = ?`,
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

	affected, err := result.RowsAffected()
	if err != nil {
		return &store.StoreError{Op: "update", Err: err}
	}
	if affected == 0 {
		return &store.StoreError{Op: "update", Err: fmt.Errorf("%w: id %d", store.ErrNotFound, id)}
	}

	return nil
}

// Delete removes the record with the given ID
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM repairs WHERE id = ?`, id)
	if err != nil {
		return &store.StoreError{Op: "delete", Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &store.StoreError{Op: "delete", Err: err}
	}
	if affected == 0 {
		return &store.StoreError{Op: "delete", Err: fmt.Errorf("%w: id %d", store.ErrNotFound, id)}
	}

	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// renderPredicate renders a predicate to a WHERE clause body and its
// arguments. An empty predicate renders to an empty string.
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
	for _, c := range p.Conditions {
		parts = append(parts, c.Field+" = ?")
		args = append(args, c.Value)
	}

	return strings.Join(parts, combiner), args
}

// scanRecordRows scans database rows into Record structs
func scanRecordRows(rows *sql.Rows) ([]store.Record, error) {
	var records []store.Record
	for rows.Next() {
		var r store.Record
		var createdAt string

		if err := rows.Scan(
			&r.ID,
			&r.Region,
			&r.SiteName,
			&r.RepairYear,
			&r.RepairMonth,
			&r.RepairDetail,
			&r.CameraType,
			&r.Inspector,
			&createdAt,
		); err != nil {
			return nil, &store.StoreError{Op: "select", Err: fmt.Errorf("failed to scan record: %w", err)}
		}

		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, &store.StoreError{Op: "select", Err: fmt.Errorf("failed to parse created_at: %w", err)}
		}
		r.CreatedAt = ts

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StoreError{Op: "select", Err: err}
	}

	return records, nil
}

// Compile-time check that Store satisfies the gateway contract
var _ store.Store = (*Store)(nil)
