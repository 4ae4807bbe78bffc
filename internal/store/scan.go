package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/structure/internal/model"
)

// Column lists are spelled out so decoding never depends on table order.
const (
	projectColumns = `_id, name, display_name, auth_address, max_auth_attempts,
		back_off_interval, back_off_max_timeout, secret_key`

	categoryColumns = `_id, project_id, name, publish, is_watching, presence,
		history, history_size, is_protected, auth_address`
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProject decodes a row selected with projectColumns.
// Nullable columns decode to their zero value.
func scanProject(row rowScanner) (model.Project, error) {
	var (
		p                                 model.Project
		authAddress, secretKey            sql.NullString
		maxAttempts, interval, maxTimeout sql.NullInt64
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.DisplayName,
		&authAddress,
		&maxAttempts,
		&interval,
		&maxTimeout,
		&secretKey,
	)
	if err != nil {
		return model.Project{}, err
	}

	p.AuthAddress = authAddress.String
	p.MaxAuthAttempts = int(maxAttempts.Int64)
	p.BackOffInterval = int(interval.Int64)
	p.BackOffMaxTimeout = int(maxTimeout.Int64)
	p.SecretKey = secretKey.String
	return p, nil
}

// scanCategory decodes a row selected with categoryColumns.
func scanCategory(row rowScanner) (model.Category, error) {
	var (
		c                                              model.Category
		projectID, authAddress                         sql.NullString
		publish, watching, presence, history, protects sql.NullBool
		historySize                                    sql.NullInt64
	)
	err := row.Scan(
		&c.ID,
		&projectID,
		&c.Name,
		&publish,
		&watching,
		&presence,
		&history,
		&historySize,
		&protects,
		&authAddress,
	)
	if err != nil {
		return model.Category{}, err
	}

	c.ProjectID = projectID.String
	c.Publish = publish.Bool
	c.IsWatching = watching.Bool
	c.Presence = presence.Bool
	c.History = history.Bool
	c.HistorySize = int(historySize.Int64)
	c.IsProtected = protects.Bool
	c.AuthAddress = authAddress.String
	return c, nil
}

// collect drains rows through scan. The result is never nil.
func collect[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}
