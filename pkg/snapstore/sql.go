package snapstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/atomic"
)

// SQLDialect selects placeholder and upsert syntax.
type SQLDialect int

const (
	// DialectPostgreSQL uses $n placeholders and ON CONFLICT.
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses ? placeholders and ON DUPLICATE KEY.
	DialectMySQL
	// DialectSQLite uses ? placeholders and INSERT OR REPLACE.
	DialectSQLite
)

// ParseDialect maps "postgres", "mysql" or "sqlite" to a dialect.
func ParseDialect(s string) (SQLDialect, error) {
	switch s {
	case "postgres", "postgresql", "pgx":
		return DialectPostgreSQL, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	}
	return 0, fmt.Errorf("snapstore: unknown SQL dialect %q", s)
}

// SQLStore stores snapshots in a database/sql table:
//
//	CREATE TABLE navstate_snapshots (
//	    id VARCHAR(255) PRIMARY KEY,
//	    data BLOB NOT NULL,
//	    saved_at TIMESTAMP NOT NULL
//	);
//
// The database handle is not closed by Close.
type SQLStore struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
	closed    atomic.Bool
}

// SQLStoreOption configures an SQLStore.
type SQLStoreOption func(*SQLStore)

// WithTableName sets the table name. Default: "navstate_snapshots".
func WithTableName(name string) SQLStoreOption {
	return func(s *SQLStore) { s.tableName = name }
}

// WithDialect sets the SQL dialect. Default: DialectPostgreSQL.
func WithDialect(d SQLDialect) SQLStoreOption {
	return func(s *SQLStore) { s.dialect = d }
}

// NewSQLStore creates an SQL-backed store on db.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) *SQLStore {
	s := &SQLStore{
		db:        db,
		tableName: "navstate_snapshots",
		dialect:   DialectPostgreSQL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) upsertQuery() string {
	switch s.dialect {
	case DialectMySQL:
		return fmt.Sprintf(`
			INSERT INTO %s (id, data, saved_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE data = VALUES(data), saved_at = VALUES(saved_at)
		`, s.tableName)
	case DialectSQLite:
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, data, saved_at) VALUES (?, ?, ?)`, s.tableName)
	default:
		return fmt.Sprintf(`
			INSERT INTO %s (id, data, saved_at) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, saved_at = EXCLUDED.saved_at
		`, s.tableName)
	}
}

// Save upserts the snapshot for id.
func (s *SQLStore) Save(ctx context.Context, id string, data []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, s.upsertQuery(), id, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("snapstore: save %s: %w", id, err)
	}
	return nil
}

// SaveAll upserts several snapshots in one transaction.
func (s *SQLStore) SaveAll(ctx context.Context, snapshots map[string][]byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.upsertQuery())
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for id, data := range snapshots {
		if _, err := stmt.ExecContext(ctx, id, data, now); err != nil {
			return fmt.Errorf("snapstore: save %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Load returns the snapshot for id, or nil if there is none.
func (s *SQLStore) Load(ctx context.Context, id string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = %s`, s.tableName, s.placeholder(1))

	var data []byte
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapstore: load %s: %w", id, err)
	}
	return data, nil
}

// Delete removes the snapshot for id.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = %s`, s.tableName, s.placeholder(1))
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

// List returns the stored ids.
func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, s.tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close marks the store closed.
func (s *SQLStore) Close() error {
	s.closed.Store(true)
	return nil
}

// CreateTable creates the snapshot table if it does not exist.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	var query string
	switch s.dialect {
	case DialectMySQL:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(255) PRIMARY KEY,
				data LONGBLOB NOT NULL,
				saved_at DATETIME NOT NULL
			)
		`, s.tableName)
	case DialectSQLite:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				data BLOB NOT NULL,
				saved_at TIMESTAMP NOT NULL
			)
		`, s.tableName)
	default:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(255) PRIMARY KEY,
				data BYTEA NOT NULL,
				saved_at TIMESTAMP WITH TIME ZONE NOT NULL
			)
		`, s.tableName)
	}
	_, err := s.db.ExecContext(ctx, query)
	return err
}
