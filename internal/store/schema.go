package store

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/roach88/structure/internal/backend"
)

// Table names.
const (
	TableProjects   = "projects"
	TableCategories = "categories"
)

// The schema is shared by every dialect and must stay as declared: no
// foreign key from categories to projects, and category names unique across
// all projects.
const (
	createProjects = `CREATE TABLE IF NOT EXISTS projects (
    id SERIAL,
    _id varchar(24) UNIQUE,
    name varchar(100) UNIQUE NOT NULL,
    display_name varchar(100) NOT NULL,
    auth_address varchar(255),
    max_auth_attempts integer,
    back_off_interval integer,
    back_off_max_timeout integer,
    secret_key varchar(32)
)`

	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    id SERIAL,
    _id varchar(24) UNIQUE,
    project_id varchar(24),
    name varchar(100) UNIQUE NOT NULL,
    publish bool,
    is_watching bool,
    presence bool,
    history bool,
    history_size integer,
    is_protected bool,
    auth_address varchar(255)
)`
)

// schemaStatements lists the provisioning statements in execution order.
var schemaStatements = []struct {
	table string
	stmt  string
}{
	{TableProjects, createProjects},
	{TableCategories, createCategories},
}

// InitSchema provisions both tables. It is idempotent: running it against
// an initialized database changes nothing.
//
// onReady (may be nil) is called only after both statements succeed. A
// failure is returned as a SchemaError and onReady is not called.
func InitSchema(ctx context.Context, db *sql.DB, onReady func()) error {
	return initSchema(ctx, db, slog.Default(), onReady)
}

func initSchema(ctx context.Context, db *sql.DB, logger *slog.Logger, onReady func()) error {
	for _, s := range schemaStatements {
		if _, err := db.ExecContext(ctx, s.stmt); err != nil {
			return backend.Schema("init schema", "create table "+s.table, err)
		}
	}

	logger.InfoContext(ctx, "database ready")
	if onReady != nil {
		onReady()
	}
	return nil
}
