package backend

import (
	"context"

	"github.com/roach88/structure/internal/model"
)

// Async exposes a Backend's operations as futures resolved on a Pool.
type Async struct {
	backend Backend
	pool    *Pool
}

// NewAsync wraps b. A nil pool gets the defaults.
func NewAsync(b Backend, pool *Pool) *Async {
	if pool == nil {
		pool = NewPool(0, 0)
	}
	return &Async{backend: b, pool: pool}
}

// Backend returns the wrapped backend.
func (a *Async) Backend() Backend {
	return a.backend
}

// Pool returns the pool calls run on.
func (a *Async) Pool() *Pool {
	return a.pool
}

// ListProjects submits Backend.ListProjects.
func (a *Async) ListProjects(ctx context.Context) *Future[[]model.Project] {
	return Submit(ctx, a.pool, OpListProjects, a.backend.ListProjects)
}

// CreateProject submits Backend.CreateProject.
func (a *Async) CreateProject(ctx context.Context, fields model.ProjectFields) *Future[model.Project] {
	return Submit(ctx, a.pool, OpCreateProject, func(ctx context.Context) (model.Project, error) {
		return a.backend.CreateProject(ctx, fields)
	})
}

// EditProject submits Backend.EditProject.
func (a *Async) EditProject(ctx context.Context, id string, fields model.ProjectFields) *Future[model.Project] {
	return Submit(ctx, a.pool, OpEditProject, func(ctx context.Context) (model.Project, error) {
		return a.backend.EditProject(ctx, id, fields)
	})
}

// DeleteProject submits Backend.DeleteProject.
func (a *Async) DeleteProject(ctx context.Context, id string) *Future[bool] {
	return Submit(ctx, a.pool, OpDeleteProject, func(ctx context.Context) (bool, error) {
		return a.backend.DeleteProject(ctx, id)
	})
}

// RegenerateSecret submits Backend.RegenerateSecret.
func (a *Async) RegenerateSecret(ctx context.Context, id string) *Future[string] {
	return Submit(ctx, a.pool, OpRegenerateSecret, func(ctx context.Context) (string, error) {
		return a.backend.RegenerateSecret(ctx, id)
	})
}

// ListCategories submits Backend.ListCategories.
func (a *Async) ListCategories(ctx context.Context) *Future[[]model.Category] {
	return Submit(ctx, a.pool, OpListCategories, a.backend.ListCategories)
}

// CreateCategory submits Backend.CreateCategory.
func (a *Async) CreateCategory(ctx context.Context, projectID string, fields model.CategoryFields) *Future[model.Category] {
	return Submit(ctx, a.pool, OpCreateCategory, func(ctx context.Context) (model.Category, error) {
		return a.backend.CreateCategory(ctx, projectID, fields)
	})
}

// EditCategory submits Backend.EditCategory.
func (a *Async) EditCategory(ctx context.Context, id string, fields model.CategoryFields) *Future[model.Category] {
	return Submit(ctx, a.pool, OpEditCategory, func(ctx context.Context) (model.Category, error) {
		return a.backend.EditCategory(ctx, id, fields)
	})
}

// DeleteCategory submits Backend.DeleteCategory.
func (a *Async) DeleteCategory(ctx context.Context, projectID, name string) *Future[bool] {
	return Submit(ctx, a.pool, OpDeleteCategory, func(ctx context.Context) (bool, error) {
		return a.backend.DeleteCategory(ctx, projectID, name)
	})
}
