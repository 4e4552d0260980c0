// Package lockfile implements tabliff.lock — a lock file that tracks
// MD5 checksums of extracted cell text per workbook. At merge time the
// checksums reveal units whose source changed after the interchange
// file was exported, so stale translations are flagged instead of
// silently written back.
//
// The lock file is stored alongside .tabliff.yaml as tabliff.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "tabliff.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the tabliff.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // workbook -> unit ID -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// TargetKey builds a lock file key for a workbook path, e.g.
// "data/catalog.xlsx". Paths are normalized to forward slashes so the
// lock file is portable between platforms.
func TargetKey(filePath string) string {
	return filepath.ToSlash(filePath)
}

// IsChanged checks if a unit's text has changed since the last export.
// Returns true if the unit is new or its content has changed.
func (lf *LockFile) IsChanged(target, unitID, content string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	units, ok := lf.Checksums[target]
	if !ok {
		return true
	}
	oldHash, ok := units[unitID]
	if !ok {
		return true
	}
	return oldHash != Hash(content)
}

// Update records the checksum of a unit's text after export.
func (lf *LockFile) Update(target, unitID, content string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[target] == nil {
		lf.Checksums[target] = make(map[string]string)
	}
	lf.Checksums[target][unitID] = Hash(content)
}

// UpdateBatch records checksums for multiple units at once. The input
// is a map of unit ID -> text.
func (lf *LockFile) UpdateBatch(target string, entries map[string]string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[target] == nil {
		lf.Checksums[target] = make(map[string]string)
	}
	for unitID, content := range entries {
		lf.Checksums[target][unitID] = Hash(content)
	}
}

// Changed returns the unit IDs from entries whose content no longer
// matches the recorded checksum, sorted. Units never recorded count as
// changed. The input is a map of unit ID -> text.
func (lf *LockFile) Changed(target string, entries map[string]string) []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[target]
	var changed []string
	for unitID, content := range entries {
		if existing == nil || existing[unitID] != Hash(content) {
			changed = append(changed, unitID)
		}
	}
	sort.Strings(changed)
	return changed
}

// Clean removes entries from the lock file that are no longer present
// in the current set of unit IDs. This prevents stale entries from
// accumulating as rows are deleted from workbooks.
func (lf *LockFile) Clean(target string, currentIDs []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[target]
	if existing == nil {
		return
	}

	valid := make(map[string]bool, len(currentIDs))
	for _, id := range currentIDs {
		valid[id] = true
	}

	for id := range existing {
		if !valid[id] {
			delete(existing, id)
		}
	}
}

// RemoveTarget removes all checksums for a workbook.
func (lf *LockFile) RemoveTarget(target string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, target)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of workbooks and total units in the lock file.
func (lf *LockFile) Stats() (targets, units int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets = len(lf.Checksums)
	for _, m := range lf.Checksums {
		units += len(m)
	}
	return
}

// Targets returns the sorted list of workbook keys.
func (lf *LockFile) Targets() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets := make([]string, 0, len(lf.Checksums))
	for t := range lf.Checksums {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// ---------------------------------------------------------------------------
// Human-readable summary
// ---------------------------------------------------------------------------

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	targets, units := lf.Stats()
	if targets == 0 {
		return "empty"
	}

	var parts []string
	for _, t := range lf.Targets() {
		n := len(lf.Checksums[t])
		parts = append(parts, fmt.Sprintf("%s: %d units", t, n))
	}
	return fmt.Sprintf("%d workbooks, %d units (%s)", targets, units, strings.Join(parts, ", "))
}
