// Package index builds the lookup structures the runtime queries instead of
// scanning entity lists.
//
// Every function here is pure: it reads the lists it is given and returns new
// maps. Indices are rebuilt in full after each refresh, never patched. When
// a list holds two entities with the same key the later one wins.
package index

import "github.com/roach88/structure/internal/model"

// ProjectsByID maps project id to project.
func ProjectsByID(projects []model.Project) map[string]model.Project {
	out := make(map[string]model.Project, len(projects))
	for _, p := range projects {
		out[p.ID] = p
	}
	return out
}

// ProjectsByName maps project name to project.
func ProjectsByName(projects []model.Project) map[string]model.Project {
	out := make(map[string]model.Project, len(projects))
	for _, p := range projects {
		out[p.Name] = p
	}
	return out
}

// CategoriesByID maps category id to category.
func CategoriesByID(categories []model.Category) map[string]model.Category {
	out := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		out[c.ID] = c
	}
	return out
}

// CategoriesByName maps project id, then category name, to category.
func CategoriesByName(categories []model.Category) map[string]map[string]model.Category {
	out := make(map[string]map[string]model.Category)
	for _, c := range categories {
		byName, ok := out[c.ProjectID]
		if !ok {
			byName = make(map[string]model.Category)
			out[c.ProjectID] = byName
		}
		byName[c.Name] = c
	}
	return out
}

// ProjectCategories groups categories by project id, keeping source order
// within each group. Every category lands in exactly one group.
func ProjectCategories(categories []model.Category) map[string][]model.Category {
	out := make(map[string][]model.Category)
	for _, c := range categories {
		out[c.ProjectID] = append(out[c.ProjectID], c)
	}
	return out
}
