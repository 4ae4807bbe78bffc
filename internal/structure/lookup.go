package structure

import "github.com/roach88/structure/internal/model"

// Project returns the project with the given id.
func (r *Registry) Project(id string) (model.Project, bool) {
	return r.Snapshot().Project(id)
}

// ProjectByName returns the project with the given name, compared the way
// names are stored.
func (r *Registry) ProjectByName(name string) (model.Project, bool) {
	return r.Snapshot().ProjectByName(model.NormalizeName(name))
}

// ResolveProject accepts either an id or a name.
func (r *Registry) ResolveProject(ref string) (model.Project, bool) {
	if p, ok := r.Project(ref); ok {
		return p, true
	}
	return r.ProjectByName(ref)
}

// Category returns the category with the given id.
func (r *Registry) Category(id string) (model.Category, bool) {
	return r.Snapshot().Category(id)
}

// CategoryByName returns the named category within a project.
func (r *Registry) CategoryByName(projectID, name string) (model.Category, bool) {
	return r.Snapshot().CategoryByName(projectID, name)
}

// CategoriesOf returns a project's categories.
func (r *Registry) CategoriesOf(projectID string) []model.Category {
	return r.Snapshot().CategoriesOf(projectID)
}

// AuthAddress returns the address that authorizes subscriptions to the
// named category: the category's override or its project's address.
// ok is false when the project or category is unknown.
func (r *Registry) AuthAddress(projectID, category string) (string, bool) {
	s := r.Snapshot()
	p, ok := s.Project(projectID)
	if !ok {
		return "", false
	}
	c, ok := s.CategoryByName(projectID, category)
	if !ok {
		return "", false
	}
	return c.EffectiveAuthAddress(p), true
}
