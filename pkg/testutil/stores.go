package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"dossier/internal/storage/pool"
	"dossier/internal/storage/registry"
	sqlitestore "dossier/internal/storage/sqlite"
)

// StoreFixture lays out SQLite stores under a temp dir the way production
// does and serves them through a real pool manager.
type StoreFixture struct {
	Dir      string
	Registry *registry.Registry
	Manager  *pool.Manager
}

// NewStoreFixture registers every known store plus extra names. Stores are
// created empty on first use unless seeded beforehand.
func NewStoreFixture(t *testing.T, extra ...string) *StoreFixture {
	t.Helper()
	dir := t.TempDir()
	reg, err := registry.New(registry.ForBaseDir(dir, extra...)...)
	require.NoError(t, err)

	mgr := pool.NewManager(reg, sqlitestore.NewDialer(), pool.WithCapacity(4))
	t.Cleanup(func() { _ = mgr.Close() })
	return &StoreFixture{Dir: dir, Registry: reg, Manager: mgr}
}

// Seed runs a SQL script against the named store's file.
func (f *StoreFixture) Seed(t *testing.T, store, script string) {
	t.Helper()
	path := registry.FileTarget(f.Dir, store)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, sqlitex.ExecuteScript(conn, script, nil))
}
