package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/testutil"
)

func TestBackendSuite(t *testing.T) {
	testutil.RunBackendSuite(t, func(t *testing.T) backend.Backend {
		b := New()
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}

func TestWithIDGenerator(t *testing.T) {
	ids := testutil.NewSequentialIDs()
	b := New(WithIDGenerator(ids))
	ctx := context.Background()

	p, err := b.CreateProject(ctx, testutil.ProjectFields("demo"))
	require.NoError(t, err)
	c, err := b.CreateCategory(ctx, p.ID, testutil.CategoryFields("news"))
	require.NoError(t, err)

	assert.Equal(t, "000000000000000000000001", p.ID)
	assert.Equal(t, "000000000000000000000002", c.ID)
}

func TestListReturnsCopies(t *testing.T) {
	b := New()
	ctx := context.Background()

	_, err := b.CreateProject(ctx, testutil.ProjectFields("demo"))
	require.NoError(t, err)

	projects, err := b.ListProjects(ctx)
	require.NoError(t, err)
	projects[0].Name = "mutated"

	again, err := b.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "demo", again[0].Name)
}

func TestClose(t *testing.T) {
	b := New()
	ctx := context.Background()
	p, err := b.CreateProject(ctx, testutil.ProjectFields("demo"))
	require.NoError(t, err)

	require.NoError(t, b.Close())

	_, err = b.ListProjects(ctx)
	assert.True(t, backend.IsStore(err))
	_, err = b.ListCategories(ctx)
	assert.True(t, backend.IsStore(err))
	_, err = b.RegenerateSecret(ctx, p.ID)
	assert.True(t, backend.IsStore(err))
	_, err = b.DeleteProject(ctx, p.ID)
	assert.True(t, backend.IsStore(err))
}

func TestConcurrentCreates(t *testing.T) {
	b := New()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = b.CreateProject(ctx, testutil.ProjectFields("same"))
		}()
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case backend.IsConstraint(err):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}
