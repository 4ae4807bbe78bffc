package secret

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structure/internal/backend"
)

// failingReader stands in for an exhausted entropy source.
type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func withRandom(t *testing.T, r io.Reader) {
	t.Helper()
	prev := random
	random = r
	t.Cleanup(func() { random = prev })
}

var hexKey = regexp.MustCompile(`^[0-9a-f]{32}$`)

type recordingWriter struct {
	projectID string
	key       string
	err       error
}

func (w *recordingWriter) WriteSecretKey(_ context.Context, projectID, key string) error {
	if w.err != nil {
		return w.err
	}
	w.projectID = projectID
	w.key = key
	return nil
}

func TestNewKey_Format(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	assert.Len(t, key, KeyLength)
	assert.Regexp(t, hexKey, key)
}

func TestNewKey_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key, err := NewKey()
		require.NoError(t, err)
		require.False(t, seen[key])
		seen[key] = true
	}
}

func TestRotate_WritesAndReturnsKey(t *testing.T) {
	w := &recordingWriter{}
	key, err := Rotate(context.Background(), w, "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", w.projectID)
	assert.Equal(t, key, w.key)
	assert.Regexp(t, hexKey, key)
}

func TestRotate_PropagatesWriterError(t *testing.T) {
	boom := errors.New("boom")
	w := &recordingWriter{err: boom}

	key, err := Rotate(context.Background(), w, "p1")
	assert.Empty(t, key)
	assert.ErrorIs(t, err, boom)
}

func TestRotate_KeyFailureIsStoreError(t *testing.T) {
	entropy := errors.New("entropy source unavailable")
	withRandom(t, failingReader{err: entropy})
	w := &recordingWriter{}

	key, err := Rotate(context.Background(), w, "p1")
	assert.Empty(t, key)
	require.Error(t, err)
	assert.True(t, backend.IsStore(err))
	assert.ErrorIs(t, err, entropy)
	assert.Contains(t, err.Error(), backend.OpRegenerateSecret)
	assert.Empty(t, w.projectID, "nothing is written without a key")
}

func TestRotate_WriterTaxonomyErrorUnchanged(t *testing.T) {
	notFound := backend.NotFound(backend.OpRegenerateSecret, "project", "p1")
	w := &recordingWriter{err: notFound}

	_, err := Rotate(context.Background(), w, "p1")
	assert.Same(t, notFound, err)
}
