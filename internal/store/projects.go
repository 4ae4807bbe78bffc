package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/model"
	"github.com/roach88/structure/internal/secret"
)

// ListProjects returns every project ordered by external id, which follows
// creation time for generated ids.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	if err := s.checkReady(backend.OpListProjects); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY _id ASC
	`)
	if err != nil {
		return nil, s.fail(backend.OpListProjects, err)
	}
	projects, err := collect(rows, scanProject)
	if err != nil {
		return nil, s.fail(backend.OpListProjects, err)
	}
	return projects, nil
}

// CreateProject inserts a project with a fresh id and secret.
// The name is lowercased first; a taken name is a ConstraintError.
func (s *Store) CreateProject(ctx context.Context, fields model.ProjectFields) (model.Project, error) {
	if err := s.checkReady(backend.OpCreateProject); err != nil {
		return model.Project{}, err
	}
	fields = fields.Normalize()

	key, err := secret.NewKey()
	if err != nil {
		return model.Project{}, backend.Store(backend.OpCreateProject, "", err)
	}
	p := fields.Apply(model.Project{ID: s.ids.Generate(), SecretKey: key})

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects
		(_id, name, display_name, auth_address, max_auth_attempts,
		 back_off_interval, back_off_max_timeout, secret_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.Name,
		p.DisplayName,
		nullString(p.AuthAddress),
		p.MaxAuthAttempts,
		p.BackOffInterval,
		p.BackOffMaxTimeout,
		p.SecretKey,
	)
	if err != nil {
		return model.Project{}, s.fail(backend.OpCreateProject, err)
	}

	s.logger.DebugContext(ctx, "project created", "project_id", p.ID, "name", p.Name)
	return p, nil
}

// EditProject overwrites every editable field of project id and returns the
// stored result. Id and secret are untouched.
func (s *Store) EditProject(ctx context.Context, id string, fields model.ProjectFields) (model.Project, error) {
	if err := s.checkReady(backend.OpEditProject); err != nil {
		return model.Project{}, err
	}
	fields = fields.Normalize()

	var p model.Project
	err := s.inTx(ctx, backend.OpEditProject, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE projects
			SET name = ?, display_name = ?, auth_address = ?, max_auth_attempts = ?,
			    back_off_interval = ?, back_off_max_timeout = ?
			WHERE _id = ?
		`,
			fields.Name,
			fields.DisplayName,
			nullString(fields.AuthAddress),
			fields.MaxAuthAttempts,
			fields.BackOffInterval,
			fields.BackOffMaxTimeout,
			id,
		)
		if err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE _id = ?`, id)
		p, err = scanProject(row)
		if errors.Is(err, sql.ErrNoRows) {
			return backend.NotFound(backend.OpEditProject, "project", id)
		}
		return err
	})
	if err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// DeleteProject removes the project's categories and then the project, in
// one transaction. It reports whether the project existed.
func (s *Store) DeleteProject(ctx context.Context, id string) (bool, error) {
	if err := s.checkReady(backend.OpDeleteProject); err != nil {
		return false, err
	}

	var deleted bool
	var orphans int64
	err := s.inTx(ctx, backend.OpDeleteProject, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE project_id = ?`, id)
		if err != nil {
			return err
		}
		if orphans, err = res.RowsAffected(); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM projects WHERE _id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.DebugContext(ctx, "project deleted",
		"project_id", id,
		"existed", deleted,
		"categories", orphans,
	)
	return deleted, nil
}

// RegenerateSecret replaces the project's secret and returns the new one.
func (s *Store) RegenerateSecret(ctx context.Context, id string) (string, error) {
	if err := s.checkReady(backend.OpRegenerateSecret); err != nil {
		return "", err
	}
	return secret.Rotate(ctx, s, id)
}

// WriteSecretKey implements secret.KeyWriter. Only secret_key is written.
func (s *Store) WriteSecretKey(ctx context.Context, projectID, key string) error {
	if err := s.checkReady(backend.OpRegenerateSecret); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE projects SET secret_key = ? WHERE _id = ?`, key, projectID)
	if err != nil {
		return s.fail(backend.OpRegenerateSecret, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.fail(backend.OpRegenerateSecret, err)
	}
	if n == 0 {
		return backend.NotFound(backend.OpRegenerateSecret, "project", projectID)
	}
	return nil
}
