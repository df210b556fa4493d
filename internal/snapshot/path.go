package snapshot

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

const (
	// StoreDirName is the conventional snapshot store directory name.
	StoreDirName = "__Snapshots__"

	// FailedSuffix marks the diff-output copy of a reference file.
	FailedSuffix = "-failed"
)

// nonWord matches runs of anything but letters, marks, digits and "_", in
// any script.
var nonWord = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_]+`)

// SanitizeName makes a test identifier filesystem-safe.
// Every run of non-word characters becomes a single "-", and leading or
// trailing separators are stripped. Letters outside ASCII are kept, so only
// identifiers that differ in punctuation or whitespace collide.
func SanitizeName(name string) string {
	return strings.Trim(nonWord.ReplaceAllString(name, "-"), "-")
}

// LocateInput identifies one reference file.
type LocateInput struct {
	// SourceFile is the path of the file the assertion lives in.
	SourceFile string

	// TestName is the test identifier segment of the file name.
	TestName string

	// SnapshotDir overrides the conventional directory. Optional.
	SnapshotDir string

	// DumpPath overrides the directory verbatim with a flat layout.
	// Takes precedence over SnapshotDir. Optional.
	DumpPath string

	// PathExtension is the format extension without the dot. Optional.
	PathExtension string
}

// Location is where a reference and its failed copy live.
type Location struct {
	Dir     string
	Current string
	Failed  string
}

// Locate derives the reference location. It is pure: identical inputs
// always address the same files, and nothing touches the filesystem.
//
// Layout (without overrides):
//
//	<dir of SourceFile>/<base>/__Snapshots__/<base>-<sanitized TestName>.<ext>
func Locate(in LocateInput) Location {
	base := filepath.Base(in.SourceFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	name := base + "-" + SanitizeName(in.TestName)
	failed := name + FailedSuffix

	var dir string
	switch {
	case in.DumpPath != "":
		dir = in.DumpPath
	case in.SnapshotDir != "":
		dir = in.SnapshotDir
	default:
		dir = filepath.Join(filepath.Dir(in.SourceFile), base, StoreDirName)
	}

	ext := ""
	if in.PathExtension != "" {
		ext = "." + in.PathExtension
	}

	return Location{
		Dir:     dir,
		Current: filepath.Join(dir, name+ext),
		Failed:  filepath.Join(dir, failed+ext),
	}
}

// Counter numbers repeated uses of the same resolved reference path.
//
// Thread-safety: all methods are safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Next records one more use of key and returns the use number (1-based).
func (c *Counter) Next(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key]
}

// Reset forgets all keys.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]int)
}
