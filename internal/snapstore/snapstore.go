package snapstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/snapcheck/internal/snapshot"
)

// Entry pairs one reference path with its failed copy.
// Either file may be missing; the Has fields say which exist.
type Entry struct {
	Reference    string `json:"reference"`
	Failed       string `json:"failed"`
	HasReference bool   `json:"has_reference"`
	HasFailed    bool   `json:"has_failed"`
}

// Name returns the reference file name without directory or extension.
func (e Entry) Name() string {
	base := filepath.Base(e.Reference)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Pending reports whether a failed copy is waiting for review.
func (e Entry) Pending() bool {
	return e.HasFailed
}

// Match reports whether Name matches a filepath.Match pattern.
// An empty pattern matches everything.
func (e Entry) Match(pattern string) (bool, error) {
	if pattern == "" {
		return true, nil
	}
	matched, err := filepath.Match(pattern, e.Name())
	if err != nil {
		return false, fmt.Errorf("invalid filter pattern: %w", err)
	}
	return matched, nil
}

// Scan walks root and inventories every __Snapshots__ directory below it
// (root itself included). Entries are sorted by reference path.
func Scan(root string) ([]Entry, error) {
	if err := checkDir(root); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) != snapshot.StoreDirName {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return pair(files), nil
}

// ScanFlat inventories the regular files directly inside dir.
func ScanFlat(dir string) ([]Entry, error) {
	if err := checkDir(dir); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	var files []string
	for _, d := range dirEntries {
		if d.Type().IsRegular() {
			files = append(files, filepath.Join(dir, d.Name()))
		}
	}
	return pair(files), nil
}

// pair groups X<ext> with X-failed<ext>.
func pair(files []string) []Entry {
	byRef := make(map[string]*Entry)
	get := func(ref string) *Entry {
		e, ok := byRef[ref]
		if !ok {
			e = &Entry{Reference: ref, Failed: failedPath(ref)}
			byRef[ref] = e
		}
		return e
	}

	for _, path := range files {
		if ref, ok := referenceFor(path); ok {
			get(ref).HasFailed = true
			continue
		}
		get(path).HasReference = true
	}

	entries := make([]Entry, 0, len(byRef))
	for _, e := range byRef {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Reference < entries[j].Reference
	})
	return entries
}

// referenceFor maps ".../X-failed.ext" to ".../X.ext".
func referenceFor(path string) (string, bool) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	if !strings.HasSuffix(stem, snapshot.FailedSuffix) {
		return "", false
	}
	return strings.TrimSuffix(stem, snapshot.FailedSuffix) + ext, true
}

func failedPath(ref string) string {
	ext := filepath.Ext(ref)
	return strings.TrimSuffix(ref, ext) + snapshot.FailedSuffix + ext
}

// Accept promotes the failed copy to be the reference.
func Accept(e Entry) error {
	if !e.HasFailed {
		return fmt.Errorf("accept %s: no failed snapshot", e.Reference)
	}
	if err := os.Rename(e.Failed, e.Reference); err != nil {
		return fmt.Errorf("accept %s: %w", e.Reference, err)
	}
	return nil
}

// Clean removes the failed copy. A copy that is already gone is not an error.
func Clean(e Entry) error {
	if err := os.Remove(e.Failed); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clean %s: %w", e.Failed, err)
	}
	return nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("snapshot directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}
	return nil
}
