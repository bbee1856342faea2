package builddriver

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// ContentHash returns the hex-encoded sha256 digest of the file at
// path, the concrete mechanism behind spec.md §4.5's "pessimistically
// mark a target stale if any input's content hash differs from the
// cached hash", modeled on the teacher's internal/manifest/manifest.go
// use of crypto/sha256 for deterministic digests.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BytesHash returns the hex-encoded sha256 digest of b directly, for
// inputs already held in memory (e.g. a dependency's already-decoded
// export interface bytes).
func BytesHash(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
