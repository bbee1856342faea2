package builddriver

import (
	"os"
	"path/filepath"
)

// atomicWrite writes data to path via a temporary file in the same
// directory, fsyncs it, then renames it into place — spec.md §5:
// "Writes are performed to a temporary path and atomically renamed" so
// readers (a dependent module's checker pass) never observe a partial
// interface file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
