package testutil

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/model"
)

var (
	idPattern     = regexp.MustCompile(`^[0-9a-f]{24}$`)
	secretPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

// BackendFactory returns a fresh, initialized, empty backend. The factory
// owns cleanup (typically via t.Cleanup).
type BackendFactory func(t *testing.T) backend.Backend

// RunBackendSuite checks the behaviour every backend.Backend must share.
// Each subtest gets its own backend from newBackend.
func RunBackendSuite(t *testing.T, newBackend BackendFactory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, b backend.Backend)
	}{
		{"EmptyListsAreNotNil", testEmptyLists},
		{"CreateProjectThenList", testCreateProjectThenList},
		{"CreateProjectExample", testCreateProjectExample},
		{"CreateProjectNormalizesName", testCreateProjectNormalizesName},
		{"CreateProjectDuplicateName", testCreateProjectDuplicateName},
		{"EditProjectKeepsIdentity", testEditProjectKeepsIdentity},
		{"EditProjectUnknownID", testEditProjectUnknownID},
		{"EditProjectNameCollision", testEditProjectNameCollision},
		{"DeleteProjectCascades", testDeleteProjectCascades},
		{"DeleteProjectUnknownID", testDeleteProjectUnknownID},
		{"RegenerateSecretChangesOnlySecret", testRegenerateSecret},
		{"RegenerateSecretUnknownID", testRegenerateSecretUnknownID},
		{"CreateCategory", testCreateCategory},
		{"CategoryNamesGloballyUnique", testCategoryNamesGloballyUnique},
		{"EditCategoryKeepsIdentity", testEditCategoryKeepsIdentity},
		{"EditCategoryUnknownID", testEditCategoryUnknownID},
		{"DeleteCategoryMatchesBothKeys", testDeleteCategoryMatchesBothKeys},
		{"AuthAddressRoundTrip", testAuthAddressRoundTrip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newBackend(t))
		})
	}
}

func testEmptyLists(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)

	categories, err := b.ListCategories(ctx)
	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)
}

func testCreateProjectThenList(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	fields := ProjectFields("alpha")
	fields.AuthAddress = "http://localhost:8000/auth"
	created, err := b.CreateProject(ctx, fields)
	require.NoError(t, err)

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, created, projects[0])
	assert.Equal(t, fields, projects[0].Fields())
	assert.Regexp(t, idPattern, created.ID)
	assert.Regexp(t, secretPattern, created.SecretKey)

	other, err := b.CreateProject(ctx, ProjectFields("beta"))
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, other.ID)
	assert.NotEqual(t, created.SecretKey, other.SecretKey)
}

func testCreateProjectExample(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	p, err := b.CreateProject(ctx, DemoProjectFields())
	require.NoError(t, err)
	assert.Len(t, p.ID, model.IDLength)
	assert.Regexp(t, secretPattern, p.SecretKey)

	key, err := b.RegenerateSecret(ctx, p.ID)
	require.NoError(t, err)
	assert.Regexp(t, secretPattern, key)
	assert.NotEqual(t, p.SecretKey, key)

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "demo", projects[0].Name)
	assert.Equal(t, "Demo", projects[0].DisplayName)
	assert.Equal(t, key, projects[0].SecretKey)
}

func testCreateProjectNormalizesName(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	p, err := b.CreateProject(ctx, ProjectFields("MixedCase"))
	require.NoError(t, err)
	assert.Equal(t, "mixedcase", p.Name)

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "mixedcase", projects[0].Name)
}

func testCreateProjectDuplicateName(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	_, err := b.CreateProject(ctx, ProjectFields("demo"))
	require.NoError(t, err)

	_, err = b.CreateProject(ctx, ProjectFields("demo"))
	require.Error(t, err)
	assert.True(t, backend.IsConstraint(err), "got %v", err)

	_, err = b.CreateProject(ctx, ProjectFields("DEMO"))
	require.Error(t, err)
	assert.True(t, backend.IsConstraint(err), "names compare after lowercasing, got %v", err)

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func testEditProjectKeepsIdentity(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	p, err := b.CreateProject(ctx, ProjectFields("demo"))
	require.NoError(t, err)

	fields := model.ProjectFields{
		Name:              "Renamed",
		DisplayName:       "Renamed project",
		AuthAddress:       "https://example.com/auth",
		MaxAuthAttempts:   10,
		BackOffInterval:   250,
		BackOffMaxTimeout: 60000,
	}
	edited, err := b.EditProject(ctx, p.ID, fields)
	require.NoError(t, err)

	assert.Equal(t, p.ID, edited.ID)
	assert.Equal(t, p.SecretKey, edited.SecretKey)
	assert.Equal(t, fields.Normalize(), edited.Fields())

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, edited, projects[0])
}

func testEditProjectUnknownID(t *testing.T, b backend.Backend) {
	_, err := b.EditProject(context.Background(), "000000000000000000000000", ProjectFields("ghost"))
	require.Error(t, err)
	assert.True(t, backend.IsStore(err), "got %v", err)
	assert.True(t, backend.IsNotFound(err), "got %v", err)
}

func testEditProjectNameCollision(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	_, err := b.CreateProject(ctx, ProjectFields("first"))
	require.NoError(t, err)
	second, err := b.CreateProject(ctx, ProjectFields("second"))
	require.NoError(t, err)

	_, err = b.EditProject(ctx, second.ID, ProjectFields("first"))
	require.Error(t, err)
	assert.True(t, backend.IsConstraint(err), "got %v", err)

	// Keeping its own name is not a collision.
	_, err = b.EditProject(ctx, second.ID, ProjectFields("second"))
	assert.NoError(t, err)
}

func testDeleteProjectCascades(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	doomed, err := b.CreateProject(ctx, ProjectFields("doomed"))
	require.NoError(t, err)
	kept, err := b.CreateProject(ctx, ProjectFields("kept"))
	require.NoError(t, err)

	for _, name := range []string{"news", "chat", "alerts"} {
		_, err := b.CreateCategory(ctx, doomed.ID, CategoryFields(name))
		require.NoError(t, err)
	}
	survivor, err := b.CreateCategory(ctx, kept.ID, CategoryFields("sports"))
	require.NoError(t, err)

	deleted, err := b.DeleteProject(ctx, doomed.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Project{kept}, projects)

	categories, err := b.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Category{survivor}, categories)
	for _, c := range categories {
		assert.NotEqual(t, doomed.ID, c.ProjectID)
	}
}

func testDeleteProjectUnknownID(t *testing.T, b backend.Backend) {
	deleted, err := b.DeleteProject(context.Background(), "000000000000000000000000")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testRegenerateSecret(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	fields := ProjectFields("demo")
	fields.AuthAddress = "http://localhost/auth"
	before, err := b.CreateProject(ctx, fields)
	require.NoError(t, err)

	first, err := b.RegenerateSecret(ctx, before.ID)
	require.NoError(t, err)
	second, err := b.RegenerateSecret(ctx, before.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, before.SecretKey, first)

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	after := projects[0]
	assert.Equal(t, second, after.SecretKey)
	after.SecretKey = before.SecretKey
	assert.Equal(t, before, after, "only the secret may change")
}

func testRegenerateSecretUnknownID(t *testing.T, b backend.Backend) {
	key, err := b.RegenerateSecret(context.Background(), "000000000000000000000000")
	require.Error(t, err)
	assert.Empty(t, key)
	assert.True(t, backend.IsNotFound(err), "got %v", err)
}

func testCreateCategory(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	p, err := b.CreateProject(ctx, ProjectFields("demo"))
	require.NoError(t, err)

	fields := model.CategoryFields{
		Name:        "news",
		Publish:     true,
		IsWatching:  true,
		Presence:    false,
		History:     true,
		HistorySize: 50,
		IsProtected: true,
	}
	c, err := b.CreateCategory(ctx, p.ID, fields)
	require.NoError(t, err)
	assert.Regexp(t, idPattern, c.ID)
	assert.NotEqual(t, p.ID, c.ID)
	assert.Equal(t, p.ID, c.ProjectID)
	assert.Equal(t, fields, c.Fields())

	categories, err := b.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Category{c}, categories)
}

func testCategoryNamesGloballyUnique(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	p1, err := b.CreateProject(ctx, ProjectFields("one"))
	require.NoError(t, err)
	p2, err := b.CreateProject(ctx, ProjectFields("two"))
	require.NoError(t, err)

	_, err = b.CreateCategory(ctx, p1.ID, CategoryFields("news"))
	require.NoError(t, err)

	_, err = b.CreateCategory(ctx, p1.ID, CategoryFields("news"))
	assert.True(t, backend.IsConstraint(err), "same project, got %v", err)

	_, err = b.CreateCategory(ctx, p2.ID, CategoryFields("news"))
	assert.True(t, backend.IsConstraint(err), "names are unique across projects, got %v", err)
}

func testEditCategoryKeepsIdentity(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	p, err := b.CreateProject(ctx, ProjectFields("demo"))
	require.NoError(t, err)
	c, err := b.CreateCategory(ctx, p.ID, CategoryFields("news"))
	require.NoError(t, err)

	fields := model.CategoryFields{
		Name:        "headlines",
		Publish:     true,
		IsWatching:  true,
		Presence:    false,
		History:     false,
		HistorySize: 1,
		IsProtected: true,
		AuthAddress: "http://localhost/category-auth",
	}
	edited, err := b.EditCategory(ctx, c.ID, fields)
	require.NoError(t, err)
	assert.Equal(t, c.ID, edited.ID)
	assert.Equal(t, c.ProjectID, edited.ProjectID)
	assert.Equal(t, fields, edited.Fields())

	categories, err := b.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Category{edited}, categories)
}

func testEditCategoryUnknownID(t *testing.T, b backend.Backend) {
	_, err := b.EditCategory(context.Background(), "000000000000000000000000", CategoryFields("ghost"))
	require.Error(t, err)
	assert.True(t, backend.IsNotFound(err), "got %v", err)
}

func testDeleteCategoryMatchesBothKeys(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	p1, err := b.CreateProject(ctx, ProjectFields("one"))
	require.NoError(t, err)
	p2, err := b.CreateProject(ctx, ProjectFields("two"))
	require.NoError(t, err)

	news, err := b.CreateCategory(ctx, p1.ID, CategoryFields("news"))
	require.NoError(t, err)
	chat, err := b.CreateCategory(ctx, p2.ID, CategoryFields("chat"))
	require.NoError(t, err)

	// Right name, wrong project: nothing happens.
	deleted, err := b.DeleteCategory(ctx, p2.ID, "news")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = b.DeleteCategory(ctx, p1.ID, "news")
	require.NoError(t, err)
	assert.True(t, deleted)

	categories, err := b.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Category{chat}, categories)
	assert.NotContains(t, categories, news)

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 2, "deleting a category never cascades")
}

func testAuthAddressRoundTrip(t *testing.T, b backend.Backend) {
	ctx := context.Background()

	p, err := b.CreateProject(ctx, ProjectFields("demo"))
	require.NoError(t, err)
	assert.Empty(t, p.AuthAddress)

	withAddr := ProjectFields("demo")
	withAddr.AuthAddress = "http://localhost:8000/auth"
	p, err = b.EditProject(ctx, p.ID, withAddr)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/auth", p.AuthAddress)

	p, err = b.EditProject(ctx, p.ID, ProjectFields("demo"))
	require.NoError(t, err)
	assert.Empty(t, p.AuthAddress, "clearing the address persists as none")

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Empty(t, projects[0].AuthAddress)
}
