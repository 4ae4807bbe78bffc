package backend

// Operation names used in errors, logs and telemetry.
const (
	OpListProjects     = "list projects"
	OpCreateProject    = "create project"
	OpEditProject      = "edit project"
	OpDeleteProject    = "delete project"
	OpRegenerateSecret = "regenerate secret"
	OpListCategories   = "list categories"
	OpCreateCategory   = "create category"
	OpEditCategory     = "edit category"
	OpDeleteCategory   = "delete category"
)
