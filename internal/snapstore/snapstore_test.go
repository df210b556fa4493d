package snapstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	store := filepath.Join(root, "pkg", "render_test", "__Snapshots__")
	writeFile(t, filepath.Join(store, "render_test-TestA.txt"), "a")
	writeFile(t, filepath.Join(store, "render_test-TestB.txt"), "b")
	writeFile(t, filepath.Join(store, "render_test-TestB-failed.txt"), "B")
	writeFile(t, filepath.Join(store, "render_test-TestC-failed.json"), "{}")
	// Outside a store: ignored.
	writeFile(t, filepath.Join(root, "pkg", "render_test.go"), "package pkg")
	writeFile(t, filepath.Join(root, "pkg", "notes-failed.txt"), "x")

	entries, err := Scan(root)
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{
			Reference:    filepath.Join(store, "render_test-TestA.txt"),
			Failed:       filepath.Join(store, "render_test-TestA-failed.txt"),
			HasReference: true,
		},
		{
			Reference:    filepath.Join(store, "render_test-TestB.txt"),
			Failed:       filepath.Join(store, "render_test-TestB-failed.txt"),
			HasReference: true,
			HasFailed:    true,
		},
		{
			Reference: filepath.Join(store, "render_test-TestC.json"),
			Failed:    filepath.Join(store, "render_test-TestC-failed.json"),
			HasFailed: true,
		},
	}, entries)
}

func TestScanFlat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_test-TestX.png"), "png")
	writeFile(t, filepath.Join(dir, "a_test-TestX-failed.png"), "png2")
	writeFile(t, filepath.Join(dir, "nested", "ignored.txt"), "x")

	entries, err := ScanFlat(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].HasReference)
	assert.True(t, entries[0].Pending())
	assert.Equal(t, "a_test-TestX", entries[0].Name())
}

func TestScanMissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, "x")
	_, err = ScanFlat(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestScanNoExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x_test-TestA"), "a")
	writeFile(t, filepath.Join(dir, "x_test-TestA-failed"), "b")

	entries, err := ScanFlat(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(dir, "x_test-TestA-failed"), entries[0].Failed)
	assert.True(t, entries[0].HasReference)
	assert.True(t, entries[0].HasFailed)
}

func TestAccept(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x-T.txt"), "old")
	writeFile(t, filepath.Join(dir, "x-T-failed.txt"), "new")

	entries, err := ScanFlat(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, Accept(entries[0]))

	data, err := os.ReadFile(filepath.Join(dir, "x-T.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "x-T-failed.txt"))

	entries, err = ScanFlat(dir)
	require.NoError(t, err)
	assert.False(t, entries[0].Pending())
}

func TestAcceptWithoutFailed(t *testing.T) {
	err := Accept(Entry{Reference: "/nowhere/x.txt", Failed: "/nowhere/x-failed.txt", HasReference: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no failed snapshot")
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x-T.txt"), "ref")
	writeFile(t, filepath.Join(dir, "x-T-failed.txt"), "produced")

	entries, err := ScanFlat(dir)
	require.NoError(t, err)
	require.NoError(t, Clean(entries[0]))

	assert.FileExists(t, filepath.Join(dir, "x-T.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "x-T-failed.txt"))

	// Idempotent.
	require.NoError(t, Clean(entries[0]))
}

func TestEntryMatch(t *testing.T) {
	e := Entry{Reference: "/s/render_test-TestButton.png"}

	tests := []struct {
		pattern string
		want    bool
	}{
		{"", true},
		{"*Button", true},
		{"render_test-*", true},
		{"*Label", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := e.Match(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := e.Match("[")
	assert.Error(t, err)
}
