// Package buildcache lets the CLI skip a generation run whose inputs and
// outputs are unchanged since the last successful run.
//
// The cache is conservative: any mismatch reruns the whole pipeline. A
// declaration change can affect any controller that references it, and the
// reference graph is not tracked across runs.
package buildcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// SchemaVersion is bumped when the cache format or the generated output
// format changes. A mismatch forces a full run.
const SchemaVersion = 1

// Cache records what was true when generation last succeeded.
type Cache struct {
	V int `json:"v"`

	// InputHash is the digest of the config file and the declaration set,
	// see HashInputs.
	InputHash string `json:"inputHash"`

	// Outputs lists the files that must still exist for the cache to hold.
	Outputs []string `json:"outputs"`
}

// CachePath returns the cache file path, next to the declaration set:
// "api.yaml" → "api.tsoa-cache".
func CachePath(entryFile string) string {
	dir := filepath.Dir(entryFile)
	name := strings.TrimSuffix(filepath.Base(entryFile), filepath.Ext(entryFile))
	return filepath.Join(dir, name+".tsoa-cache")
}

// Load reads a cache file. It returns nil when the file is missing or
// unreadable; callers treat nil as a miss.
func Load(path string) *Cache {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	return &c
}

// Save writes the cache atomically (write to temp, rename).
func Save(path string, cache *Cache) error {
	data, err := json.Marshal(cache, jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

// Delete removes the cache file. Errors are ignored.
func Delete(path string) {
	os.Remove(path)
}

// IsValid reports whether the cache can be trusted to skip generation:
// the schema version and input hash match and every output still exists.
func (c *Cache) IsValid(inputHash string) bool {
	if c == nil || c.V != SchemaVersion || c.InputHash != inputHash {
		return false
	}
	for _, path := range c.Outputs {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// HashInputs digests the given files in order. An empty path contributes
// nothing; a missing file contributes its name only, so creating it later
// changes the hash.
func HashInputs(paths ...string) string {
	h := sha256.New()
	for _, path := range paths {
		if path == "" {
			continue
		}
		fmt.Fprintf(h, "%s\x00", path)
		if data, err := os.ReadFile(path); err == nil {
			fmt.Fprintf(h, "%d\x00", len(data))
			h.Write(data)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// New creates a cache with the current schema version.
func New(inputHash string, outputs []string) *Cache {
	return &Cache{
		V:         SchemaVersion,
		InputHash: inputHash,
		Outputs:   outputs,
	}
}
