// Package memory implements backend.Backend in process memory.
//
// It enforces the same constraints as the relational schema: unique
// lowercase project names, and category names unique across all projects.
// Like the relational backend it deletes a project's categories itself.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/model"
	"github.com/roach88/structure/internal/secret"
)

var errClosed = errors.New("backend closed")

// Backend is an in-memory backend.Backend.
//
// Thread-safety: all methods are safe for concurrent use; each call is
// atomic with respect to the others.
type Backend struct {
	mu         sync.RWMutex
	ids        model.IDGenerator
	projects   []model.Project
	categories []model.Category
	closed     bool
}

var (
	_ backend.Backend  = (*Backend)(nil)
	_ secret.KeyWriter = (*Backend)(nil)
)

// Option configures a Backend.
type Option func(*Backend)

// WithIDGenerator sets the id generator. Default: model.ObjectIDGenerator.
func WithIDGenerator(g model.IDGenerator) Option {
	return func(b *Backend) {
		b.ids = g
	}
}

// New creates an empty backend.
func New(opts ...Option) *Backend {
	b := &Backend{ids: model.ObjectIDGenerator{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ListProjects returns copies of all projects in insertion order.
func (b *Backend) ListProjects(ctx context.Context) ([]model.Project, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, backend.Store(backend.OpListProjects, "", errClosed)
	}
	out := make([]model.Project, len(b.projects))
	copy(out, b.projects)
	return out, nil
}

// CreateProject stores a new project with a fresh id and secret key.
func (b *Backend) CreateProject(ctx context.Context, fields model.ProjectFields) (model.Project, error) {
	fields = fields.Normalize()
	key, err := secret.NewKey()
	if err != nil {
		return model.Project{}, backend.Store(backend.OpCreateProject, "", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return model.Project{}, backend.Store(backend.OpCreateProject, "", errClosed)
	}
	if b.projectByName(fields.Name) >= 0 {
		return model.Project{}, nameTaken(backend.OpCreateProject, "project", fields.Name)
	}

	p := fields.Apply(model.Project{ID: b.ids.Generate(), SecretKey: key})
	b.projects = append(b.projects, p)
	return p, nil
}

// EditProject replaces the editable fields of project id.
func (b *Backend) EditProject(ctx context.Context, id string, fields model.ProjectFields) (model.Project, error) {
	fields = fields.Normalize()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return model.Project{}, backend.Store(backend.OpEditProject, "", errClosed)
	}
	i := b.projectByID(id)
	if i < 0 {
		return model.Project{}, backend.NotFound(backend.OpEditProject, "project", id)
	}
	if j := b.projectByName(fields.Name); j >= 0 && j != i {
		return model.Project{}, nameTaken(backend.OpEditProject, "project", fields.Name)
	}

	b.projects[i] = fields.Apply(b.projects[i])
	return b.projects[i], nil
}

// DeleteProject removes project id and its categories.
func (b *Backend) DeleteProject(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false, backend.Store(backend.OpDeleteProject, "", errClosed)
	}

	b.categories = slices.DeleteFunc(b.categories, func(c model.Category) bool {
		return c.ProjectID == id
	})
	i := b.projectByID(id)
	if i < 0 {
		return false, nil
	}
	b.projects = slices.Delete(b.projects, i, i+1)
	return true, nil
}

// RegenerateSecret rotates the secret key of project id.
func (b *Backend) RegenerateSecret(ctx context.Context, id string) (string, error) {
	return secret.Rotate(ctx, b, id)
}

// WriteSecretKey implements secret.KeyWriter.
func (b *Backend) WriteSecretKey(ctx context.Context, projectID, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return backend.Store(backend.OpRegenerateSecret, "", errClosed)
	}
	i := b.projectByID(projectID)
	if i < 0 {
		return backend.NotFound(backend.OpRegenerateSecret, "project", projectID)
	}
	b.projects[i].SecretKey = key
	return nil
}

// ListCategories returns copies of all categories in insertion order.
func (b *Backend) ListCategories(ctx context.Context) ([]model.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, backend.Store(backend.OpListCategories, "", errClosed)
	}
	out := make([]model.Category, len(b.categories))
	copy(out, b.categories)
	return out, nil
}

// CreateCategory stores a new category under projectID.
func (b *Backend) CreateCategory(ctx context.Context, projectID string, fields model.CategoryFields) (model.Category, error) {
	fields = fields.Normalize()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return model.Category{}, backend.Store(backend.OpCreateCategory, "", errClosed)
	}
	if b.categoryByName(fields.Name) >= 0 {
		return model.Category{}, nameTaken(backend.OpCreateCategory, "category", fields.Name)
	}

	c := fields.Apply(model.Category{ID: b.ids.Generate(), ProjectID: projectID})
	b.categories = append(b.categories, c)
	return c, nil
}

// EditCategory replaces the editable fields of category id.
func (b *Backend) EditCategory(ctx context.Context, id string, fields model.CategoryFields) (model.Category, error) {
	fields = fields.Normalize()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return model.Category{}, backend.Store(backend.OpEditCategory, "", errClosed)
	}
	i := slices.IndexFunc(b.categories, func(c model.Category) bool { return c.ID == id })
	if i < 0 {
		return model.Category{}, backend.NotFound(backend.OpEditCategory, "category", id)
	}
	if j := b.categoryByName(fields.Name); j >= 0 && j != i {
		return model.Category{}, nameTaken(backend.OpEditCategory, "category", fields.Name)
	}

	b.categories[i] = fields.Apply(b.categories[i])
	return b.categories[i], nil
}

// DeleteCategory removes the category called name under projectID.
func (b *Backend) DeleteCategory(ctx context.Context, projectID, name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false, backend.Store(backend.OpDeleteCategory, "", errClosed)
	}
	i := slices.IndexFunc(b.categories, func(c model.Category) bool {
		return c.ProjectID == projectID && c.Name == name
	})
	if i < 0 {
		return false, nil
	}
	b.categories = slices.Delete(b.categories, i, i+1)
	return true, nil
}

// Close marks the backend closed. Later calls fail with a StoreError.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Backend) projectByID(id string) int {
	return slices.IndexFunc(b.projects, func(p model.Project) bool { return p.ID == id })
}

func (b *Backend) projectByName(name string) int {
	return slices.IndexFunc(b.projects, func(p model.Project) bool { return p.Name == name })
}

// categoryByName matches across all projects: the schema declares category
// names globally unique.
func (b *Backend) categoryByName(name string) int {
	return slices.IndexFunc(b.categories, func(c model.Category) bool { return c.Name == name })
}

func nameTaken(op, entity, name string) error {
	return backend.Constraint(op, fmt.Sprintf("%s name %q already exists", entity, name), nil)
}
