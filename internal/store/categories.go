package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/model"
)

// ListCategories returns every category ordered by external id.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := s.checkReady(backend.OpListCategories); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		ORDER BY _id ASC
	`)
	if err != nil {
		return nil, s.fail(backend.OpListCategories, err)
	}
	categories, err := collect(rows, scanCategory)
	if err != nil {
		return nil, s.fail(backend.OpListCategories, err)
	}
	return categories, nil
}

// CreateCategory inserts a category under projectID. The project is not
// checked: no foreign key is declared and callers verify it.
func (s *Store) CreateCategory(ctx context.Context, projectID string, fields model.CategoryFields) (model.Category, error) {
	if err := s.checkReady(backend.OpCreateCategory); err != nil {
		return model.Category{}, err
	}
	fields = fields.Normalize()
	c := fields.Apply(model.Category{ID: s.ids.Generate(), ProjectID: projectID})

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories
		(_id, project_id, name, publish, is_watching, presence,
		 history, history_size, is_protected, auth_address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.ProjectID,
		c.Name,
		c.Publish,
		c.IsWatching,
		c.Presence,
		c.History,
		c.HistorySize,
		c.IsProtected,
		nullString(c.AuthAddress),
	)
	if err != nil {
		return model.Category{}, s.fail(backend.OpCreateCategory, err)
	}
	return c, nil
}

// EditCategory overwrites every editable field of category id. Id and
// project are untouched.
func (s *Store) EditCategory(ctx context.Context, id string, fields model.CategoryFields) (model.Category, error) {
	if err := s.checkReady(backend.OpEditCategory); err != nil {
		return model.Category{}, err
	}
	fields = fields.Normalize()

	var c model.Category
	err := s.inTx(ctx, backend.OpEditCategory, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE categories
			SET name = ?, publish = ?, is_watching = ?, presence = ?, history = ?,
			    history_size = ?, is_protected = ?, auth_address = ?
			WHERE _id = ?
		`,
			fields.Name,
			fields.Publish,
			fields.IsWatching,
			fields.Presence,
			fields.History,
			fields.HistorySize,
			fields.IsProtected,
			nullString(fields.AuthAddress),
			id,
		)
		if err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE _id = ?`, id)
		c, err = scanCategory(row)
		if errors.Is(err, sql.ErrNoRows) {
			return backend.NotFound(backend.OpEditCategory, "category", id)
		}
		return err
	})
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes the category matching both projectID and name.
// It reports whether a row was removed.
func (s *Store) DeleteCategory(ctx context.Context, projectID, name string) (bool, error) {
	if err := s.checkReady(backend.OpDeleteCategory); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM categories WHERE project_id = ? AND name = ?`,
		projectID, name,
	)
	if err != nil {
		return false, s.fail(backend.OpDeleteCategory, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.fail(backend.OpDeleteCategory, err)
	}
	return n > 0, nil
}
