// Package structure is the runtime's view of projects and categories.
//
// A Registry owns a backend and the current index.Snapshot. Reads go to the
// snapshot without locking. Every mutation runs as one cycle under a mutex:
// call the backend, and on success re-list both entities and swap in a
// freshly built snapshot. A failed mutation leaves the snapshot alone.
package structure

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/index"
	"github.com/roach88/structure/internal/model"
)

// Validator checks field sets before they reach the backend.
type Validator interface {
	Project(model.ProjectFields) error
	Category(model.CategoryFields) error
}

// Registry serves lookups from the latest snapshot and serializes
// mutations.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	async     *backend.Async
	logger    *slog.Logger
	validator Validator

	mu       sync.Mutex // serializes mutation-then-refresh cycles
	snapshot atomic.Pointer[index.Snapshot]
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithPool sets the pool backend calls run on. Default: backend.NewPool(0, 0).
func WithPool(p *backend.Pool) Option {
	return func(r *Registry) {
		r.async = backend.NewAsync(r.async.Backend(), p)
	}
}

// WithValidator checks every create and edit before the backend sees it.
func WithValidator(v Validator) Option {
	return func(r *Registry) {
		r.validator = v
	}
}

// New creates a Registry over b with an empty snapshot. Call Refresh to
// load the current state.
func New(b backend.Backend, opts ...Option) *Registry {
	r := &Registry{
		async:  backend.NewAsync(b, nil),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "structure")
	r.snapshot.Store(index.Empty())
	return r
}

// Backend returns the wrapped backend.
func (r *Registry) Backend() backend.Backend {
	return r.async.Backend()
}

// Close closes the backend.
func (r *Registry) Close() error {
	return r.async.Backend().Close()
}

// Snapshot returns the current snapshot.
func (r *Registry) Snapshot() *index.Snapshot {
	return r.snapshot.Load()
}

// Refresh re-reads both lists and replaces the snapshot.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *Registry) refreshLocked(ctx context.Context) error {
	// Both lists are requested before either is awaited.
	projectsF := r.async.ListProjects(ctx)
	categoriesF := r.async.ListCategories(ctx)

	projects, err := projectsF.Await(ctx).Unwrap()
	if err != nil {
		return r.report(ctx, "refresh", err)
	}
	categories, err := categoriesF.Await(ctx).Unwrap()
	if err != nil {
		return r.report(ctx, "refresh", err)
	}

	r.snapshot.Store(index.Build(projects, categories))
	r.logger.DebugContext(ctx, "snapshot refreshed",
		"projects", len(projects),
		"categories", len(categories),
	)
	return nil
}

// report logs err at a level matching its category and returns it.
func (r *Registry) report(ctx context.Context, op string, err error) error {
	switch {
	case backend.IsSchema(err):
		r.logger.ErrorContext(ctx, "storage schema error", "op", op, "error", err)
	case backend.IsStore(err):
		r.logger.WarnContext(ctx, "storage error", "op", op, "error", err)
	default:
		r.logger.DebugContext(ctx, "operation rejected", "op", op, "error", err)
	}
	return err
}

// mutate runs one mutation-then-refresh cycle. check, when non-nil, runs
// under the lock before the mutation so it sees the snapshot the mutation
// applies to. If the mutation commits but the refresh fails, the refresh
// error is returned and the snapshot stays stale until the next successful
// refresh.
func mutate[T any](ctx context.Context, r *Registry, op string, check func(*index.Snapshot) error, call func() *backend.Future[T]) (T, error) {
	var zero T

	r.mu.Lock()
	defer r.mu.Unlock()

	if check != nil {
		if err := check(r.Snapshot()); err != nil {
			return zero, r.report(ctx, op, err)
		}
	}

	v, err := call().Await(ctx).Unwrap()
	if err != nil {
		return zero, r.report(ctx, op, err)
	}
	if err := r.refreshLocked(ctx); err != nil {
		return zero, err
	}
	return v, nil
}

// CreateProject validates and creates a project.
func (r *Registry) CreateProject(ctx context.Context, fields model.ProjectFields) (model.Project, error) {
	if err := r.validateProject(fields); err != nil {
		return model.Project{}, r.report(ctx, backend.OpCreateProject, err)
	}
	p, err := mutate(ctx, r, backend.OpCreateProject, nil, func() *backend.Future[model.Project] {
		return r.async.CreateProject(ctx, fields)
	})
	if err == nil {
		r.logger.InfoContext(ctx, "project created", "project_id", p.ID, "name", p.Name)
	}
	return p, err
}

// EditProject validates and overwrites a project's editable fields.
func (r *Registry) EditProject(ctx context.Context, id string, fields model.ProjectFields) (model.Project, error) {
	if err := r.validateProject(fields); err != nil {
		return model.Project{}, r.report(ctx, backend.OpEditProject, err)
	}
	return mutate(ctx, r, backend.OpEditProject, nil, func() *backend.Future[model.Project] {
		return r.async.EditProject(ctx, id, fields)
	})
}

// DeleteProject deletes a project and its categories.
func (r *Registry) DeleteProject(ctx context.Context, id string) (bool, error) {
	deleted, err := mutate(ctx, r, backend.OpDeleteProject, nil, func() *backend.Future[bool] {
		return r.async.DeleteProject(ctx, id)
	})
	if err == nil && deleted {
		r.logger.InfoContext(ctx, "project deleted", "project_id", id)
	}
	return deleted, err
}

// RegenerateSecret rotates a project's secret. Sessions derived from the
// old secret are left to the caller.
func (r *Registry) RegenerateSecret(ctx context.Context, id string) (string, error) {
	key, err := mutate(ctx, r, backend.OpRegenerateSecret, nil, func() *backend.Future[string] {
		return r.async.RegenerateSecret(ctx, id)
	})
	if err == nil {
		r.logger.InfoContext(ctx, "secret regenerated", "project_id", id)
	}
	return key, err
}

// CreateCategory creates a category under an existing project. The project
// must be in the snapshot current when the insert runs; a concurrent delete
// of the project either lands first and rejects the create, or waits for it.
func (r *Registry) CreateCategory(ctx context.Context, projectID string, fields model.CategoryFields) (model.Category, error) {
	if err := r.validateCategory(fields); err != nil {
		return model.Category{}, r.report(ctx, backend.OpCreateCategory, err)
	}
	projectExists := func(s *index.Snapshot) error {
		if _, ok := s.Project(projectID); !ok {
			return backend.Validation(backend.OpCreateCategory, map[string]string{
				"project_id": "unknown project " + projectID,
			})
		}
		return nil
	}
	return mutate(ctx, r, backend.OpCreateCategory, projectExists, func() *backend.Future[model.Category] {
		return r.async.CreateCategory(ctx, projectID, fields)
	})
}

// EditCategory validates and overwrites a category's editable fields.
func (r *Registry) EditCategory(ctx context.Context, id string, fields model.CategoryFields) (model.Category, error) {
	if err := r.validateCategory(fields); err != nil {
		return model.Category{}, r.report(ctx, backend.OpEditCategory, err)
	}
	return mutate(ctx, r, backend.OpEditCategory, nil, func() *backend.Future[model.Category] {
		return r.async.EditCategory(ctx, id, fields)
	})
}

// DeleteCategory deletes the category named name in project projectID.
func (r *Registry) DeleteCategory(ctx context.Context, projectID, name string) (bool, error) {
	return mutate(ctx, r, backend.OpDeleteCategory, nil, func() *backend.Future[bool] {
		return r.async.DeleteCategory(ctx, projectID, name)
	})
}

func (r *Registry) validateProject(fields model.ProjectFields) error {
	if r.validator == nil {
		return nil
	}
	return r.validator.Project(fields)
}

func (r *Registry) validateCategory(fields model.CategoryFields) error {
	if r.validator == nil {
		return nil
	}
	return r.validator.Category(fields)
}
