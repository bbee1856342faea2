package builddriver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentHashMatchesBytesHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Data.Maybe.ditto")
	content := []byte("module Data.Maybe\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	fileHash, err := ContentHash(path)
	require.NoError(t, err)
	require.Equal(t, BytesHash(content), fileHash)
}

func TestContentHashChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Data.Maybe.ditto")

	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))
	h1, err := ContentHash(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))
	h2, err := ContentHash(path)
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
}

func TestAtomicWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ast")

	require.NoError(t, atomicWrite(path, []byte("payload")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "out.ast", entries[0].Name())
}

func TestAtomicWriteCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.ast")

	require.NoError(t, atomicWrite(path, []byte("payload")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))
}
