package builddriver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// cacheFileName is the build cache persisted under --build-dir between
// runs (spec.md §4.5).
const cacheFileName = ".ditto-buildcache.json"

// Cache records, per target, the combined content hash of its inputs as
// of the last successful build — spec.md §4.5's "cached hash" a target
// is compared against to decide staleness. Record updates the in-memory
// table under a mutex as each target finishes during a run; Save writes
// the whole table back to the build directory.
type Cache struct {
	mu     sync.Mutex
	path   string
	Hashes map[string]string `json:"hashes"`
}

// LoadCache reads the build cache from buildDir, returning an empty one
// if it does not exist yet (a first build).
func LoadCache(buildDir string) (*Cache, error) {
	path := filepath.Join(buildDir, cacheFileName)
	c := &Cache{path: path, Hashes: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if c.Hashes == nil {
		c.Hashes = map[string]string{}
	}
	return c, nil
}

// Save writes the cache back to its build directory, atomically.
func (c *Cache) Save() error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return atomicWrite(c.path, data)
}

// Stale reports whether id's last recorded input hash differs from
// inputHash, or whether it has no recorded hash at all (first build).
func (c *Cache) Stale(id TargetID, inputHash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.Hashes[id.String()]
	return !ok || prev != inputHash
}

// Record stores id's input hash for the next run. A dependent becomes
// stale only if its own input hash changes — which folds in the
// content of a predecessor's .ast-exports, not whether the predecessor
// merely ran (spec.md §9: rebuilding a body alone must not invalidate
// dependents).
func (c *Cache) Record(id TargetID, inputHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Hashes[id.String()] = inputHash
}
