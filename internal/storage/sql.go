package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/starford/todod/internal/apperr"
	"github.com/starford/todod/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS todos (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	"order"   INTEGER NULL,
	seq       BIGINT NOT NULL
);
`

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// columns maps Fields keys to quoted column names.
var columns = map[string]string{
	models.FieldTitle:     "title",
	models.FieldCompleted: "completed",
	models.FieldOrder:     `"order"`,
}

// SQL implements Provider on a relational database through database/sql.
// Every operation runs in its own transaction. Queries use $n placeholders,
// which both SQLite and PostgreSQL bind by position.
type SQL struct {
	conn *sql.DB
}

// newSQL wraps an open connection pool and applies the schema.
func newSQL(ctx context.Context, conn *sql.DB) (*SQL, error) {
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQL{conn: conn}, nil
}

func (s *SQL) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

// All returns every record ordered by insertion.
func (s *SQL) All(ctx context.Context) ([]models.CreatedTodo, error) {
	var out []models.CreatedTodo
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, title, completed, "order" FROM todos ORDER BY seq`)
		if err != nil {
			return fmt.Errorf("storage: all: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTodo(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.CreatedTodo{}
	}
	return out, nil
}

// Insert adds a record; its URL is not persisted.
func (s *SQL) Insert(ctx context.Context, t models.CreatedTodo) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO todos (id, title, completed, "order", seq)
			VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(seq), 0) + 1 FROM todos))
		`, t.ID.String(), t.Title, t.Completed, nullInt(t.Order))
		if err != nil {
			if isDuplicateKey(err) {
				return apperr.ErrDuplicateKey
			}
			return fmt.Errorf("storage: insert: %w", err)
		}
		return nil
	})
}

// Find looks a record up by primary key.
func (s *SQL) Find(ctx context.Context, id uuid.UUID) (*models.CreatedTodo, error) {
	var found *models.CreatedTodo
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT id, title, completed, "order" FROM todos WHERE id = $1`, id.String())
		t, err := scanTodo(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = &t
		return nil
	})
	return found, err
}

// UpdateFields sets only the provided columns.
func (s *SQL) UpdateFields(ctx context.Context, id uuid.UUID, fields models.Fields) error {
	if err := fields.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		sets[i] = columns[k] + " = $" + strconv.Itoa(i+1)
		args = append(args, fields[k])
	}
	args = append(args, id.String())
	query := `UPDATE todos SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(keys)+1)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("storage: update: %w", err)
		}
		return nil
	})
}

// Remove deletes the record with the given id, if present.
func (s *SQL) Remove(ctx context.Context, id uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id.String()); err != nil {
			return fmt.Errorf("storage: remove: %w", err)
		}
		return nil
	})
}

// Clear removes all records.
func (s *SQL) Clear(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM todos`); err != nil {
			return fmt.Errorf("storage: clear: %w", err)
		}
		return nil
	})
}

// Ping checks the database connection.
func (s *SQL) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *SQL) Close() error {
	return s.conn.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(sc scanner) (models.CreatedTodo, error) {
	var (
		rawID string
		t     models.CreatedTodo
		order sql.NullInt64
	)
	if err := sc.Scan(&rawID, &t.Title, &t.Completed, &order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("storage: scan: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return t, fmt.Errorf("storage: parse id %q: %w", rawID, err)
	}
	t.ID = id
	if order.Valid {
		o := int(order.Int64)
		t.Order = &o
	}
	return t, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func isDuplicateKey(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
