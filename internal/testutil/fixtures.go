package testutil

import "github.com/roach88/structure/internal/model"

// ProjectFields returns a valid field set for a project named name.
func ProjectFields(name string) model.ProjectFields {
	return model.DefaultProjectFields(name, "Project "+name)
}

// CategoryFields returns a valid field set with the default flags.
func CategoryFields(name string) model.CategoryFields {
	return model.DefaultCategoryFields(name)
}

// DemoProjectFields is the example project used across the suite.
func DemoProjectFields() model.ProjectFields {
	return model.ProjectFields{
		Name:              "demo",
		DisplayName:       "Demo",
		MaxAuthAttempts:   5,
		BackOffInterval:   100,
		BackOffMaxTimeout: 5000,
	}
}
