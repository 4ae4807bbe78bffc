package index

import (
	"sort"

	"github.com/roach88/structure/internal/model"
)

// Snapshot bundles one consistent read of both entity lists with every
// index built from them. A Snapshot is immutable once built and safe for
// concurrent readers.
type Snapshot struct {
	projects   []model.Project
	categories []model.Category

	projectsByID      map[string]model.Project
	projectsByName    map[string]model.Project
	categoriesByID    map[string]model.Category
	categoriesByName  map[string]map[string]model.Category
	projectCategories map[string][]model.Category
}

// Build indexes the given lists. The lists are copied.
func Build(projects []model.Project, categories []model.Category) *Snapshot {
	ps := make([]model.Project, len(projects))
	copy(ps, projects)
	cs := make([]model.Category, len(categories))
	copy(cs, categories)

	return &Snapshot{
		projects:          ps,
		categories:        cs,
		projectsByID:      ProjectsByID(ps),
		projectsByName:    ProjectsByName(ps),
		categoriesByID:    CategoriesByID(cs),
		categoriesByName:  CategoriesByName(cs),
		projectCategories: ProjectCategories(cs),
	}
}

// Empty returns a snapshot with no entities.
func Empty() *Snapshot {
	return Build(nil, nil)
}

// Projects returns a copy of the project list.
func (s *Snapshot) Projects() []model.Project {
	out := make([]model.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Categories returns a copy of the category list.
func (s *Snapshot) Categories() []model.Category {
	out := make([]model.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Project looks a project up by id.
func (s *Snapshot) Project(id string) (model.Project, bool) {
	p, ok := s.projectsByID[id]
	return p, ok
}

// ProjectByName looks a project up by its stored (lowercase) name.
func (s *Snapshot) ProjectByName(name string) (model.Project, bool) {
	p, ok := s.projectsByName[name]
	return p, ok
}

// Category looks a category up by id.
func (s *Snapshot) Category(id string) (model.Category, bool) {
	c, ok := s.categoriesByID[id]
	return c, ok
}

// CategoryByName looks a category up within a project.
func (s *Snapshot) CategoryByName(projectID, name string) (model.Category, bool) {
	c, ok := s.categoriesByName[projectID][name]
	return c, ok
}

// CategoriesOf returns the project's categories in source order. The result
// is a copy and never nil.
func (s *Snapshot) CategoriesOf(projectID string) []model.Category {
	group := s.projectCategories[projectID]
	out := make([]model.Category, len(group))
	copy(out, group)
	return out
}

// Summary is a deterministic overview of a snapshot.
type Summary struct {
	Projects   int              `json:"projects"`
	Categories int              `json:"categories"`
	ByProject  []ProjectSummary `json:"by_project"`

	// Orphans lists categories whose project is not in the snapshot.
	// Nothing in the schema prevents them.
	Orphans []string `json:"orphan_categories"`
}

// ProjectSummary lists one project's category names in source order.
type ProjectSummary struct {
	ID         string   `json:"_id"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// Summarize reports counts and per-project category names, ordered by
// project name. Orphan category names are sorted.
func (s *Snapshot) Summarize() Summary {
	sum := Summary{
		Projects:   len(s.projects),
		Categories: len(s.categories),
		ByProject:  make([]ProjectSummary, 0, len(s.projectsByID)),
		Orphans:    []string{},
	}

	for _, p := range s.projectsByID {
		names := []string{}
		for _, c := range s.projectCategories[p.ID] {
			names = append(names, c.Name)
		}
		sum.ByProject = append(sum.ByProject, ProjectSummary{ID: p.ID, Name: p.Name, Categories: names})
	}
	sort.Slice(sum.ByProject, func(i, j int) bool {
		a, b := sum.ByProject[i], sum.ByProject[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	for _, c := range s.categories {
		if _, ok := s.projectsByID[c.ProjectID]; !ok {
			sum.Orphans = append(sum.Orphans, c.Name)
		}
	}
	sort.Strings(sum.Orphans)
	return sum
}
