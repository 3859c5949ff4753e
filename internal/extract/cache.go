package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Cache maps item descriptions (case-sensitive, exactly as they appear in the
// item column at extraction time) to their extraction result. It is the single source of truth across runs: an entry,
// once present, is never overwritten or re-queried.
//
// The file-backed form loads the whole mapping at open and persists it
// wholesale; the in-memory form backs tests. Neither is safe for concurrent
// use; the batch runner merges results from a single goroutine.
type Cache struct {
	path    string
	entries map[string]UnitExtraction
}

// NewMemoryCache creates a cache with no backing file. Persist is a no-op.
func NewMemoryCache() *Cache {
	return &Cache{entries: make(map[string]UnitExtraction)}
}

// OpenFileCache loads the mapping from path. A missing file yields an empty
// cache; a corrupt file is an error rather than silently discarding history.
func OpenFileCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string]UnitExtraction)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("cache: parse %s: %w", path, err)
	}
	return c, nil
}

func (c *Cache) Get(description string) (UnitExtraction, bool) {
	e, ok := c.entries[description]
	return e, ok
}

func (c *Cache) Has(description string) bool {
	_, ok := c.entries[description]
	return ok
}

// Put records a result for a description not seen before. Existing entries are
// kept untouched so re-runs never alter already-cached answers.
func (c *Cache) Put(description string, e UnitExtraction) {
	if _, ok := c.entries[description]; ok {
		return
	}
	c.entries[description] = e
}

func (c *Cache) Len() int { return len(c.entries) }

// Descriptions lists the cached keys in sorted order.
func (c *Cache) Descriptions() []string {
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Persist writes the full mapping back to disk through a temp file + rename,
// good enough for the single-writer model this pipeline runs under.
func (c *Cache) Persist() error {
	if c.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("cache: mkdir: %w", err)
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("cache: rename: %w", err)
	}
	return nil
}
