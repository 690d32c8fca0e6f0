package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DriverFromURL infers the store driver from a database URL scheme.
// It returns "" when the scheme is not recognized.
func DriverFromURL(dbURL string) string {
	switch {
	case strings.HasPrefix(dbURL, "sqlite:"):
		return DriverSQLite
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return DriverPostgres
	default:
		return ""
	}
}

// Options selects and configures a store backing.
type Options struct {
	Driver          string
	URL             string
	Args            map[string]string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Open creates the store described by opts.
func Open(ctx context.Context, opts Options) (Provider, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, opts)
	case DriverPostgres:
		return OpenPostgres(ctx, opts)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(ctx context.Context, opts Options) (*SQL, error) {
	path := strings.TrimPrefix(opts.URL, "sqlite:///")
	args := map[string]string{
		"_journal_mode": "WAL",
		"_busy_timeout": "5000",
	}
	for k, v := range opts.Args {
		args[k] = v
	}
	conn, err := sql.Open("sqlite3", withQuery(path, args))
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	configurePool(conn, opts)
	if path == ":memory:" {
		// Each connection owns a separate database, so the one connection must never be recycled.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
		conn.SetConnMaxIdleTime(0)
	}
	s, err := newSQL(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects to PostgreSQL through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, opts Options) (*SQL, error) {
	conn, err := sql.Open("pgx", withQuery(opts.URL, opts.Args))
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}
	configurePool(conn, opts)
	s, err := newSQL(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func configurePool(conn *sql.DB, opts Options) {
	if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
}

// withQuery appends args to dsn as URL query parameters, sorted by key.
func withQuery(dsn string, args map[string]string) string {
	if len(args) == 0 {
		return dsn
	}
	q := url.Values{}
	for k, v := range args {
		q.Set(k, v)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + q.Encode()
}
