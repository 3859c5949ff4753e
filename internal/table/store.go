package table

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Store persists stage snapshots in a single sqlite database file. Each stage
// writes a full snapshot: the previous table of the same name is dropped, never
// appended to.
type Store struct {
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// WriteSnapshot replaces the named table with the full contents of t.
// Columns where every non-nil cell is numeric are stored as REAL, the rest as
// TEXT; nil cells become NULL.
func (s *Store) WriteSnapshot(ctx context.Context, name string, t *Table) error {
	cols := t.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("WriteSnapshot %s: table has no columns", name)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("WriteSnapshot %s: begin: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(name))); err != nil {
		return fmt.Errorf("WriteSnapshot %s: drop: %w", name, err)
	}

	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		sqlType := "TEXT"
		if t.IsNumeric(c) {
			sqlType = "REAL"
		}
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(c), sqlType))
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("WriteSnapshot %s: create: %w", name, err)
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		marks[i] = "?"
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("WriteSnapshot %s: prepare: %w", name, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range cols {
			args[j] = t.Get(i, c)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("WriteSnapshot %s: insert row %d: %w", name, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("WriteSnapshot %s: commit: %w", name, err)
	}
	return nil
}

// ReadSnapshot loads the named table back. REAL cells come back as float64,
// TEXT as string, NULL as nil.
func (s *Store) ReadSnapshot(ctx context.Context, name string) (*Table, error) {
	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("ReadSnapshot %s: query: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("ReadSnapshot %s: columns: %w", name, err)
	}

	t := New(cols...)
	scan := make([]any, len(cols))
	for i := range scan {
		scan[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("ReadSnapshot %s: scan: %w", name, err)
		}
		row := make(map[string]Value, len(cols))
		for i, c := range cols {
			row[c] = normalizeCell(*(scan[i].(*any)))
		}
		t.Append(row, cols...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReadSnapshot %s: iterate: %w", name, err)
	}
	return t, nil
}

func normalizeCell(v any) Value {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return val
	case int64:
		return float64(val)
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
