// Package store is the relational backend.Backend for projects and
// categories.
//
// Three dialects share the same statements:
//   - sqlite: github.com/mattn/go-sqlite3 (cgo), the default
//   - sqlite-purego: modernc.org/sqlite
//   - mysql: github.com/go-sql-driver/mysql
//
// # Schema
//
// Two tables, projects and categories, created by InitSchema with
// CREATE TABLE IF NOT EXISTS. No foreign key links them, so the store
// deletes a project's categories itself, in the same transaction as the
// project. Category names are unique across all projects.
//
// # Errors
//
// Driver errors are translated per dialect into the backend taxonomy:
//   - unique violation: ConstraintError
//   - missing table: SchemaError
//   - anything else: StoreError
//
// # SQLite configuration
//
//   - WAL mode (file databases only)
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - a single open connection
package store
