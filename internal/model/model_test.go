package model

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{24}$`)

func TestJSONFieldNaming(t *testing.T) {
	p := Project{ID: "p1", Name: "demo", DisplayName: "Demo", SecretKey: "s"}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"_id"`)
	assert.Contains(t, string(data), `"display_name"`)
	assert.Contains(t, string(data), `"back_off_max_timeout"`)
	assert.NotContains(t, string(data), `"auth_address"`, "empty auth address is omitted")

	c := Category{ID: "c1", ProjectID: "p1", Name: "news", IsWatching: true}
	data, err = json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"project_id"`)
	assert.Contains(t, string(data), `"is_watching":true`)
}

func TestNormalize_LowercasesName(t *testing.T) {
	f := ProjectFields{Name: "  DemoProject ", DisplayName: " Demo "}.Normalize()
	assert.Equal(t, "demoproject", f.Name)
	assert.Equal(t, "Demo", f.DisplayName)
}

func TestNormalize_CategoryKeepsCase(t *testing.T) {
	f := CategoryFields{Name: " News "}.Normalize()
	assert.Equal(t, "News", f.Name)
}

func TestDefaultProjectFields(t *testing.T) {
	f := DefaultProjectFields("demo", "Demo")
	assert.Equal(t, 5, f.MaxAuthAttempts)
	assert.Equal(t, 100, f.BackOffInterval)
	assert.Equal(t, 5000, f.BackOffMaxTimeout)
}

func TestDefaultCategoryFields(t *testing.T) {
	f := DefaultCategoryFields("news")
	assert.True(t, f.Presence)
	assert.True(t, f.History)
	assert.Equal(t, 20, f.HistorySize)
	assert.False(t, f.Publish)
	assert.False(t, f.IsWatching)
	assert.False(t, f.IsProtected)
}

func TestProjectFields_ApplyKeepsIdentity(t *testing.T) {
	p := Project{ID: "p1", Name: "old", SecretKey: "secret"}
	got := DefaultProjectFields("new", "New").Apply(p)

	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "secret", got.SecretKey)
	assert.Equal(t, "new", got.Name)
	assert.Equal(t, p.Fields().Apply(p), p, "round trip through Fields is identity")
}

func TestCategoryFields_ApplyKeepsIdentity(t *testing.T) {
	c := Category{ID: "c1", ProjectID: "p1", Name: "old"}
	got := DefaultCategoryFields("new").Apply(c)

	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "p1", got.ProjectID)
	assert.Equal(t, "new", got.Name)
	assert.Equal(t, c.Fields().Apply(c), c)
}

func TestBackOffDurations(t *testing.T) {
	p := Project{BackOffInterval: 100, BackOffMaxTimeout: 5000}
	assert.Equal(t, 100*time.Millisecond, p.BackOff())
	assert.Equal(t, 5*time.Second, p.BackOffMax())
}

func TestEffectiveAuthAddress(t *testing.T) {
	p := Project{AuthAddress: "http://project/auth"}

	assert.Equal(t, "http://project/auth", Category{}.EffectiveAuthAddress(p))
	assert.Equal(t, "http://cat/auth", Category{AuthAddress: "http://cat/auth"}.EffectiveAuthAddress(p))
}

func TestObjectIDGenerator_Format(t *testing.T) {
	gen := ObjectIDGenerator{}
	id := gen.Generate()
	assert.Len(t, id, IDLength)
	assert.Regexp(t, hexID, id)
}

func TestObjectIDGenerator_Unique(t *testing.T) {
	gen := ObjectIDGenerator{}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.Generate()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestObjectIDGenerator_SortsByTime(t *testing.T) {
	gen := ObjectIDGenerator{}
	first := gen.Generate()
	time.Sleep(2 * time.Millisecond)
	second := gen.Generate()
	assert.Less(t, first[:12], second[:12], "timestamp prefix must increase")
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}
