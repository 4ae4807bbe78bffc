package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/model"
	"github.com/roach88/structure/internal/secret"
)

// Options configures Open and Connect.
type Options struct {
	// Driver is one of DriverSQLite (default), DriverSQLitePureGo or
	// DriverMySQL.
	Driver string

	// DSN is the driver-specific data source, e.g. a file path for SQLite.
	DSN string

	// Logger receives store events. Default: slog.Default().
	Logger *slog.Logger

	// IDs generates external ids. Default: model.ObjectIDGenerator.
	IDs model.IDGenerator

	// OnReady is called once the schema is provisioned.
	OnReady func()
}

// Store is the relational backend.Backend.
//
// Every call runs its statements immediately; mutations that need more than
// one statement use a transaction. Calls made before the schema is
// initialized fail with a SchemaError.
type Store struct {
	db      *sql.DB
	dialect *dialect
	ids     model.IDGenerator
	logger  *slog.Logger
	onReady func()
	ready   atomic.Bool
}

var (
	_ backend.Backend  = (*Store)(nil)
	_ secret.KeyWriter = (*Store)(nil)
)

// Open connects to the database and provisions the schema.
// The returned store accepts calls immediately.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s, err := Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Connect opens the database and applies session settings but does not
// touch the schema. The store rejects backend calls until Init succeeds.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	d, err := lookupDialect(opts.Driver)
	if err != nil {
		return nil, backend.Store("open", "", err)
	}

	db, err := d.open(opts.DSN)
	if err != nil {
		return nil, backend.Store("open", d.name, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, backend.Store("open", "failed to connect to database", err)
	}

	db.SetMaxOpenConns(d.maxConns)
	db.SetMaxIdleConns(d.maxConns)

	for _, pragma := range d.pragmas(opts.DSN) {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, backend.Store("open", fmt.Sprintf("failed to execute %q", pragma), err)
		}
	}

	s := &Store{
		db:      db,
		dialect: d,
		ids:     opts.IDs,
		logger:  opts.Logger,
		onReady: opts.OnReady,
	}
	if s.ids == nil {
		s.ids = model.ObjectIDGenerator{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "store", "driver", d.name)
	return s, nil
}

// Init runs the schema initializer and marks the store ready.
// Safe to call more than once.
func (s *Store) Init(ctx context.Context) error {
	err := initSchema(ctx, s.db, s.logger, func() {
		s.ready.Store(true)
		if s.onReady != nil {
			s.onReady()
		}
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "schema initialization failed", "error", err)
		return err
	}
	return nil
}

// Ready reports whether Init has completed.
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Driver returns the dialect name the store was opened with.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// TableStatus describes one expected table.
type TableStatus struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
	Rows    int64  `json:"rows"`
}

// Tables reports whether each expected table exists and how many rows it
// holds. It works before Init, so it can diagnose an unprovisioned database.
func (s *Store) Tables(ctx context.Context) ([]TableStatus, error) {
	out := make([]TableStatus, 0, len(schemaStatements))
	for _, t := range schemaStatements {
		status := TableStatus{Name: t.table}
		// Table names come from the fixed list above, never from input.
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(&status.Rows)
		switch {
		case err == nil:
			status.Present = true
		case s.dialect.classify(err) == kindNoTable:
		default:
			return nil, s.fail("inspect tables", err)
		}
		out = append(out, status)
	}
	return out, nil
}

// checkReady rejects calls made before the schema exists.
func (s *Store) checkReady(op string) error {
	if !s.ready.Load() {
		return backend.Schema(op, "", backend.ErrNotReady)
	}
	return nil
}

// fail converts a driver error into the backend taxonomy.
func (s *Store) fail(op string, err error) error {
	var be *backend.Error
	if errors.As(err, &be) {
		return err
	}
	switch s.dialect.classify(err) {
	case kindUnique:
		return backend.Constraint(op, uniqueMessage(err), err)
	case kindNoTable:
		s.logger.Error("expected table missing", "op", op, "error", err)
		return backend.Schema(op, "missing table", err)
	}
	return backend.Store(op, "", err)
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return s.fail(op, err)
	}
	if err := tx.Commit(); err != nil {
		return s.fail(op, err)
	}
	return nil
}

// nullString maps the empty string to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
