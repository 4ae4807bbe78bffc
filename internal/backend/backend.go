package backend

import (
	"context"

	"github.com/roach88/structure/internal/model"
)

// Backend is the set of operations every persistence engine implements.
//
// Implementations normalize field sets before writing, generate ids and
// secrets themselves, and delete a project's categories along with it
// because the schema declares no cascade.
type Backend interface {
	// ListProjects returns all projects. Order is not guaranteed.
	ListProjects(ctx context.Context) ([]model.Project, error)

	// CreateProject inserts a project with a generated id and secret.
	// A taken name fails with a ConstraintError.
	CreateProject(ctx context.Context, fields model.ProjectFields) (model.Project, error)

	// EditProject overwrites every field except id and secret.
	// An unknown id fails with a StoreError wrapping ErrNotFound.
	EditProject(ctx context.Context, id string, fields model.ProjectFields) (model.Project, error)

	// DeleteProject removes the project and every category referencing it.
	// Reports whether the project existed.
	DeleteProject(ctx context.Context, id string) (bool, error)

	// RegenerateSecret replaces the project's secret and returns it.
	RegenerateSecret(ctx context.Context, id string) (string, error)

	// ListCategories returns all categories. Order is not guaranteed.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// CreateCategory inserts a category for projectID. The project is not
	// checked; that is the caller's job.
	CreateCategory(ctx context.Context, projectID string, fields model.CategoryFields) (model.Category, error)

	// EditCategory overwrites every field except id and project.
	EditCategory(ctx context.Context, id string, fields model.CategoryFields) (model.Category, error)

	// DeleteCategory removes the category matching both projectID and name.
	// Reports whether a row was removed.
	DeleteCategory(ctx context.Context, projectID, name string) (bool, error)

	// Close releases the storage handle.
	Close() error
}
