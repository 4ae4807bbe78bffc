package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/testutil"
)

// createTestStore opens an initialized SQLite store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	return createTestStoreWithDriver(t, DriverSQLite)
}

func createTestStoreWithDriver(t *testing.T, driver string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), Options{
		Driver: driver,
		DSN:    path,
		Logger: testutil.DiscardLogger(),
	})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// suiteFactory adapts a driver to testutil.RunBackendSuite.
func suiteFactory(driver string) testutil.BackendFactory {
	return func(t *testing.T) backend.Backend {
		return createTestStoreWithDriver(t, driver)
	}
}
