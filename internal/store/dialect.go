package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Driver names accepted by Options.Driver.
const (
	DriverSQLite       = "sqlite"
	DriverSQLitePureGo = "sqlite-purego"
	DriverMySQL        = "mysql"
)

// errKind is what a dialect makes of a driver error.
type errKind int

const (
	kindOther errKind = iota
	kindUnique
	kindNoTable
)

// dialect captures what differs between the supported databases: how to
// connect, which session settings to apply and how to read driver errors.
// The statements themselves are shared.
type dialect struct {
	name     string
	open     func(dsn string) (*sql.DB, error)
	pragmas  func(dsn string) []string
	maxConns int
	classify func(err error) errKind
}

var dialects = map[string]*dialect{
	DriverSQLite: {
		name:     DriverSQLite,
		open:     func(dsn string) (*sql.DB, error) { return sql.Open("sqlite3", dsn) },
		pragmas:  sqlitePragmas,
		maxConns: 1,
		classify: classifyMattn,
	},
	DriverSQLitePureGo: {
		name:     DriverSQLitePureGo,
		open:     func(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) },
		pragmas:  sqlitePragmas,
		maxConns: 1,
		classify: classifyModernc,
	},
	DriverMySQL: {
		name:     DriverMySQL,
		open:     openMySQL,
		pragmas:  func(string) []string { return nil },
		maxConns: 8,
		classify: classifyMySQL,
	},
}

// Drivers returns the accepted driver names, sorted.
func Drivers() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupDialect(name string) (*dialect, error) {
	if name == "" {
		name = DriverSQLite
	}
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q (want one of %s)", name, strings.Join(Drivers(), ", "))
	}
	return d, nil
}

// sqlitePragmas returns the session settings for both SQLite drivers.
// WAL needs a file, so in-memory databases skip it.
func sqlitePragmas(dsn string) []string {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	if !isMemoryDSN(dsn) {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}
	return pragmas
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func openMySQL(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

func classifyMattn(err error) errKind {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return kindUnique
		}
	}
	return classifyMessage(err)
}

func classifyModernc(err error) errKind {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
		return kindUnique
	}
	return classifyMessage(err)
}

// MySQL server error numbers.
const (
	mysqlDuplicateEntry = 1062
	mysqlNoSuchTable    = 1146
)

func classifyMySQL(err error) errKind {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlDuplicateEntry:
			return kindUnique
		case mysqlNoSuchTable:
			return kindNoTable
		}
	}
	return kindOther
}

// classifyMessage is the SQLite fallback for errors that lost their typed
// form on the way up.
func classifyMessage(err error) errKind {
	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "unique constraint failed"):
		return kindUnique
	case strings.Contains(message, "no such table"):
		return kindNoTable
	}
	return kindOther
}

// uniqueColumn extracts the column named in a unique violation, e.g. "name"
// from SQLite's "UNIQUE constraint failed: projects.name" or MySQL's
// "Duplicate entry 'demo' for key 'projects.name'". It returns "" when the
// message names no column.
func uniqueColumn(err error) string {
	message := err.Error()
	var key string
	if i := strings.Index(message, "UNIQUE constraint failed: "); i >= 0 {
		key = message[i+len("UNIQUE constraint failed: "):]
		if j := strings.IndexAny(key, " ,("); j >= 0 {
			key = key[:j]
		}
	} else if i := strings.LastIndex(message, "for key '"); i >= 0 {
		key = strings.TrimSuffix(message[i+len("for key '"):], "'")
	}
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	return key
}

// uniqueMessage describes a unique violation by the column it hit.
func uniqueMessage(err error) string {
	if column := uniqueColumn(err); column != "" {
		return column + " already exists"
	}
	return "unique constraint violated"
}
