package builddriver

import (
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/require"
)

func TestCacheStaleOnFirstBuild(t *testing.T) {
	c, err := LoadCache(t.TempDir())
	require.NoError(t, err)

	require.True(t, c.Stale(ast("Data.Maybe"), "hash1"))
}

func TestCacheRecordAndStaleness(t *testing.T) {
	c, err := LoadCache(t.TempDir())
	require.NoError(t, err)

	id := ast("Data.Maybe")
	c.Record(id, "hash1")

	require.False(t, c.Stale(id, "hash1"))
	require.True(t, c.Stale(id, "hash2"))
}

func TestCachePersistsAcrossLoad(t *testing.T) {
	dir := t.TempDir()

	c1, err := LoadCache(dir)
	require.NoError(t, err)
	id := ast("Data.Maybe")
	c1.Record(id, "hash1")
	c1.Record(ast("Data.List"), "hash2")
	require.NoError(t, c1.Save())

	c2, err := LoadCache(dir)
	require.NoError(t, err)
	require.False(t, c2.Stale(id, "hash1"))

	// The reloaded cache's hash table must be byte-for-byte the same
	// data the prior run recorded — a load that silently dropped or
	// reordered an entry would still pass individual Stale() checks.
	if diff := deep.Equal(c1.Hashes, c2.Hashes); diff != nil {
		t.Fatalf("cached hashes differ from freshly recorded hashes: %v", diff)
	}

	require.FileExists(t, filepath.Join(dir, cacheFileName))
}
