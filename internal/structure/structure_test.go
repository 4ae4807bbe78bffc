package structure

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/backend/memory"
	"github.com/roach88/structure/internal/model"
	"github.com/roach88/structure/internal/testutil"
	"github.com/roach88/structure/internal/validate"
)

// countingBackend counts list calls so tests can see refreshes.
type countingBackend struct {
	backend.Backend
	lists atomic.Int64
}

func (b *countingBackend) ListProjects(ctx context.Context) ([]model.Project, error) {
	b.lists.Add(1)
	return b.Backend.ListProjects(ctx)
}

// failingBackend fails every call with err.
type failingBackend struct {
	backend.Backend
	err error
}

func (b *failingBackend) ListProjects(context.Context) ([]model.Project, error) {
	return nil, b.err
}

func (b *failingBackend) CreateProject(context.Context, model.ProjectFields) (model.Project, error) {
	return model.Project{}, b.err
}

// slowBackend blocks creates until release is closed.
type slowBackend struct {
	backend.Backend
	release chan struct{}
}

func (b *slowBackend) CreateProject(ctx context.Context, f model.ProjectFields) (model.Project, error) {
	<-b.release
	return b.Backend.CreateProject(ctx, f)
}

// blockingDeleteBackend holds DeleteProject inside the backend until release
// is closed. started is closed once the delete is in flight.
type blockingDeleteBackend struct {
	backend.Backend
	started chan struct{}
	release chan struct{}
}

func (b *blockingDeleteBackend) DeleteProject(ctx context.Context, id string) (bool, error) {
	close(b.started)
	<-b.release
	return b.Backend.DeleteProject(ctx, id)
}

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	opts = append([]Option{WithLogger(testutil.DiscardLogger())}, opts...)
	r := New(memory.New(), opts...)
	require.NoError(t, r.Refresh(context.Background()))
	return r
}

func TestRegistry_StartsEmpty(t *testing.T) {
	r := New(memory.New(), WithLogger(testutil.DiscardLogger()))
	assert.Empty(t, r.Snapshot().Projects())
	assert.Empty(t, r.Snapshot().Categories())
}

func TestRegistry_MutationsRefreshSnapshot(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	p, err := r.CreateProject(ctx, testutil.DemoProjectFields())
	require.NoError(t, err)

	got, ok := r.Project(p.ID)
	require.True(t, ok)
	assert.Equal(t, p, got)

	c, err := r.CreateCategory(ctx, p.ID, testutil.CategoryFields("news"))
	require.NoError(t, err)
	assert.Equal(t, []model.Category{c}, r.CategoriesOf(p.ID))

	key, err := r.RegenerateSecret(ctx, p.ID)
	require.NoError(t, err)
	got, _ = r.Project(p.ID)
	assert.Equal(t, key, got.SecretKey)

	_, err = r.EditCategory(ctx, c.ID, testutil.CategoryFields("headlines"))
	require.NoError(t, err)
	_, ok = r.CategoryByName(p.ID, "headlines")
	assert.True(t, ok)

	_, err = r.EditProject(ctx, p.ID, testutil.ProjectFields("renamed"))
	require.NoError(t, err)
	_, ok = r.ProjectByName("renamed")
	assert.True(t, ok)

	deleted, err := r.DeleteCategory(ctx, p.ID, "headlines")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, r.CategoriesOf(p.ID))

	_, err = r.CreateCategory(ctx, p.ID, testutil.CategoryFields("chat"))
	require.NoError(t, err)

	deleted, err = r.DeleteProject(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, ok = r.Project(p.ID)
	assert.False(t, ok)
	assert.Empty(t, r.Snapshot().Categories(), "categories go with their project")
}

func TestRegistry_FailedMutationDoesNotRefresh(t *testing.T) {
	counting := &countingBackend{Backend: memory.New()}
	r := New(counting, WithLogger(testutil.DiscardLogger()))
	ctx := context.Background()

	_, err := r.CreateProject(ctx, testutil.ProjectFields("demo"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), counting.lists.Load())
	before := r.Snapshot()

	_, err = r.CreateProject(ctx, testutil.ProjectFields("demo"))
	require.Error(t, err)
	assert.True(t, backend.IsConstraint(err))
	assert.Equal(t, int64(1), counting.lists.Load())
	assert.Same(t, before, r.Snapshot())
}

func TestRegistry_CreateCategoryNeedsKnownProject(t *testing.T) {
	r := newRegistry(t)

	_, err := r.CreateCategory(context.Background(), "000000000000000000000000", testutil.CategoryFields("news"))
	require.Error(t, err)
	assert.True(t, backend.IsValidation(err))

	categories, err := r.Backend().ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, categories, "the backend is never called")
}

func TestRegistry_CreateCategoryRacingProjectDelete(t *testing.T) {
	b := &blockingDeleteBackend{
		Backend: memory.New(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := New(b, WithLogger(testutil.DiscardLogger()))
	ctx := context.Background()
	require.NoError(t, r.Refresh(ctx))

	p, err := r.CreateProject(ctx, testutil.ProjectFields("demo"))
	require.NoError(t, err)

	deleteErr := make(chan error, 1)
	go func() {
		_, err := r.DeleteProject(ctx, p.ID)
		deleteErr <- err
	}()
	<-b.started

	// The snapshot still lists the project while the delete is in flight.
	_, ok := r.Project(p.ID)
	require.True(t, ok)

	createErr := make(chan error, 1)
	go func() {
		_, err := r.CreateCategory(ctx, p.ID, testutil.CategoryFields("news"))
		createErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	close(b.release)

	require.NoError(t, <-deleteErr)
	err = <-createErr
	require.Error(t, err)
	assert.True(t, backend.IsValidation(err))

	categories, err := b.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories, "no category may outlive its project")
	assert.Empty(t, r.Snapshot().Summarize().Orphans)
}

func TestRegistry_Validator(t *testing.T) {
	v, err := validate.New()
	require.NoError(t, err)
	r := newRegistry(t, WithValidator(v))
	ctx := context.Background()

	bad := testutil.ProjectFields("demo")
	bad.MaxAuthAttempts = 0
	_, err = r.CreateProject(ctx, bad)
	require.Error(t, err)
	assert.True(t, backend.IsValidation(err))
	assert.Empty(t, r.Snapshot().Projects())

	p, err := r.CreateProject(ctx, testutil.ProjectFields("demo"))
	require.NoError(t, err)

	badCategory := testutil.CategoryFields("news")
	badCategory.HistorySize = 0
	_, err = r.CreateCategory(ctx, p.ID, badCategory)
	assert.True(t, backend.IsValidation(err))

	_, err = r.EditProject(ctx, p.ID, bad)
	assert.True(t, backend.IsValidation(err))
}

func TestRegistry_LookupsNormalizeNames(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	p, err := r.CreateProject(ctx, testutil.ProjectFields("Demo"))
	require.NoError(t, err)

	got, ok := r.ProjectByName("DEMO")
	require.True(t, ok)
	assert.Equal(t, p.ID, got.ID)

	got, ok = r.ResolveProject(p.ID)
	require.True(t, ok)
	assert.Equal(t, "demo", got.Name)

	got, ok = r.ResolveProject("demo")
	require.True(t, ok)
	assert.Equal(t, p.ID, got.ID)

	_, ok = r.ResolveProject("missing")
	assert.False(t, ok)
}

func TestRegistry_AuthAddress(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	fields := testutil.ProjectFields("demo")
	fields.AuthAddress = "http://project/auth"
	p, err := r.CreateProject(ctx, fields)
	require.NoError(t, err)

	_, err = r.CreateCategory(ctx, p.ID, testutil.CategoryFields("inherits"))
	require.NoError(t, err)
	override := testutil.CategoryFields("overrides")
	override.AuthAddress = "http://category/auth"
	_, err = r.CreateCategory(ctx, p.ID, override)
	require.NoError(t, err)

	addr, ok := r.AuthAddress(p.ID, "inherits")
	require.True(t, ok)
	assert.Equal(t, "http://project/auth", addr)

	addr, ok = r.AuthAddress(p.ID, "overrides")
	require.True(t, ok)
	assert.Equal(t, "http://category/auth", addr)

	_, ok = r.AuthAddress(p.ID, "missing")
	assert.False(t, ok)
	_, ok = r.AuthAddress("missing", "inherits")
	assert.False(t, ok)
}

func TestRegistry_SchemaErrorsAreLogged(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	schemaErr := backend.Schema(backend.OpListProjects, "missing table", nil)
	r := New(&failingBackend{Backend: memory.New(), err: schemaErr}, WithLogger(logger))

	err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, backend.IsFatal(err))
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "storage schema error")
}

func TestRegistry_ForeignErrorsBecomeStoreErrors(t *testing.T) {
	r := New(&failingBackend{Backend: memory.New(), err: assert.AnError}, WithLogger(testutil.DiscardLogger()))

	_, err := r.CreateProject(context.Background(), testutil.ProjectFields("demo"))
	require.Error(t, err)
	assert.True(t, backend.IsStore(err))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRegistry_ExecutionWindow(t *testing.T) {
	slow := &slowBackend{Backend: memory.New(), release: make(chan struct{})}
	defer close(slow.release)

	r := New(slow,
		WithLogger(testutil.DiscardLogger()),
		WithPool(backend.NewPool(1, 20*time.Millisecond)),
	)

	_, err := r.CreateProject(context.Background(), testutil.ProjectFields("demo"))
	require.Error(t, err)
	assert.True(t, backend.IsStore(err))
	assert.True(t, backend.IsTimeout(err))
}

func TestRegistry_ConcurrentMutations(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	p, err := r.CreateProject(ctx, testutil.ProjectFields("demo"))
	require.NoError(t, err)

	const n = 12
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.CreateCategory(ctx, p.ID, testutil.CategoryFields("cat"+string(rune('a'+i))+"x"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.CategoriesOf(p.ID), n, "the last refresh sees every committed mutation")
}

func TestRegistry_Close(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Close())

	err := r.Refresh(context.Background())
	assert.True(t, backend.IsStore(err))
}
