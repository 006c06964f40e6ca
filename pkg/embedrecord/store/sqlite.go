package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/randalmurphal/embedrecord/pkg/embedrecord/query"
)

const backendSQLite = "sqlite"

// SQLiteStore persists rows to a SQLite table with one INTEGER column per
// declared reference column. Filters run as SQL.
type SQLiteStore struct {
	db      *sql.DB
	table   string
	columns []string
	mu      sync.RWMutex
	closed  bool
	instrument
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens a SQLite store and creates or extends its table.
// The path should be a file path (e.g., "./hosts.db") or ":memory:" for testing.
func NewSQLiteStore(path string, columns []string, opts ...Option) (*SQLiteStore, error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:         db,
		table:      o.table,
		columns:    slices.Clone(columns),
		instrument: newInstrument(backendSQLite, o),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the table and adds any declared column it lacks.
func (s *SQLiteStore) migrate() error {
	table := query.QuoteIdent(s.table)
	if _, err := s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE
		)
	`, table)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	existing, err := s.tableColumns()
	if err != nil {
		return err
	}
	for _, c := range s.columns {
		if slices.Contains(existing, c) {
			continue
		}
		if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s INTEGER",
			table, query.QuoteIdent(c))); err != nil {
			return fmt.Errorf("add column %s: %w", c, err)
		}
		if _, err := s.db.Exec(fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)",
			query.QuoteIdent("idx_"+s.table+"_"+c), table, query.QuoteIdent(c))); err != nil {
			return fmt.Errorf("create index on %s: %w", c, err)
		}
	}
	return nil
}

func (s *SQLiteStore) tableColumns() ([]string, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", query.QuoteIdent(s.table)))
	if err != nil {
		return nil, fmt.Errorf("read table info: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info: %w", err)
	}
	return names, nil
}

// Columns implements Store.
func (s *SQLiteStore) Columns() []string {
	return slices.Clone(s.columns)
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, row *Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if err := prepareRow(row, s.columns); err != nil {
		return err
	}

	names := []string{"id"}
	marks := []string{"?"}
	updates := make([]string, 0, len(s.columns))
	args := []any{row.ID.String()}
	for _, c := range s.columns {
		q := query.QuoteIdent(c)
		names = append(names, q)
		marks = append(marks, "?")
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", q, q))
		v, ok := row.Value(c)
		args = append(args, sql.NullInt64{Int64: v, Valid: ok})
	}

	conflict := "DO NOTHING"
	if len(updates) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) %s",
		query.QuoteIdent(s.table), strings.Join(names, ", "), strings.Join(marks, ", "), conflict)

	return s.run(ctx, "save", func(ctx context.Context) (int, error) {
		if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
			return 0, fmt.Errorf("save row: %w", err)
		}
		return 1, nil
	})
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, id uuid.UUID) (*Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var row *Row
	err := s.run(ctx, "load", func(ctx context.Context) (int, error) {
		rows, err := s.query(ctx, "WHERE id = ?", id.String())
		if err != nil {
			return 0, fmt.Errorf("load row: %w", err)
		}
		if len(rows) == 0 {
			return 0, fmt.Errorf("%w: %s", ErrRowNotFound, id)
		}
		row = rows[0]
		return 1, nil
	})
	return row, err
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	return s.run(ctx, "delete", func(ctx context.Context) (int, error) {
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE id = ?", query.QuoteIdent(s.table)), id.String())
		if err != nil {
			return 0, fmt.Errorf("delete row: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	})
}

// Select implements Store.
func (s *SQLiteStore) Select(ctx context.Context, p query.Predicate) ([]*Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	where, args := "", []any(nil)
	if p != nil {
		if err := checkColumns(s.columns, p.Columns()); err != nil {
			return nil, err
		}
		var cond string
		cond, args = p.SQL()
		where = "WHERE " + cond
	}

	var out []*Row
	err := s.selecting(ctx, p, func(ctx context.Context) (int, error) {
		rows, err := s.query(ctx, where, args...)
		if err != nil {
			return 0, fmt.Errorf("select rows: %w", err)
		}
		out = rows
		return len(rows), nil
	})
	return out, err
}

// query reads rows matching a WHERE clause in seq order.
func (s *SQLiteStore) query(ctx context.Context, where string, args ...any) ([]*Row, error) {
	cols := make([]string, 0, len(s.columns)+1)
	cols = append(cols, "id")
	for _, c := range s.columns {
		cols = append(cols, query.QuoteIdent(c))
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY seq",
		strings.Join(cols, ", "), query.QuoteIdent(s.table), where)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Row
	values := make([]sql.NullInt64, len(s.columns))
	dest := make([]any, len(s.columns)+1)
	for rows.Next() {
		var rawID string
		dest[0] = &rawID
		for i := range values {
			dest[i+1] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse row id %q: %w", rawID, err)
		}
		row := &Row{ID: id}
		for i, c := range s.columns {
			if values[i].Valid {
				row.Set(c, values[i].Int64)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}
