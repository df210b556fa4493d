package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapcheck.yaml")
	content := `
record_all: true
diff_tool: ksdiff
timeout: 250ms
ledger: outcomes.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.True(t, f.RecordAll)
	assert.Equal(t, "ksdiff", f.DiffTool)
	assert.Equal(t, "250ms", f.Timeout)
	assert.Equal(t, "outcomes.db", f.Ledger)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, File{}, *f)
}

func TestLoad_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recordall: true\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recordall")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestResolve_Defaults(t *testing.T) {
	s, err := Resolve(nil, mapLookup(nil))
	require.NoError(t, err)
	assert.False(t, s.Snapshot.CI)
	assert.False(t, s.Snapshot.RecordAll)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Empty(t, s.Ledger)
}

func TestResolve_EnvironmentWins(t *testing.T) {
	file := &File{DiffTool: "opendiff", Timeout: "2s", Ledger: "file.db"}
	env := map[string]string{
		EnvCI:          "true",
		EnvRecord:      "true",
		EnvInteractive: "true",
		EnvDumpPath:    "/dump",
		EnvDiffTool:    "ksdiff",
		EnvLedger:      "env.db",
	}

	s, err := Resolve(file, mapLookup(env))
	require.NoError(t, err)
	assert.True(t, s.Snapshot.CI)
	assert.True(t, s.Snapshot.RecordAll)
	assert.True(t, s.Snapshot.Interactive)
	assert.Equal(t, "/dump", s.Snapshot.DumpPath)
	assert.Equal(t, "ksdiff", s.Snapshot.DiffTool)
	assert.Equal(t, "env.db", s.Ledger)
	assert.Equal(t, 2*time.Second, s.Timeout)
}

func TestResolve_CIRequiresExactTrue(t *testing.T) {
	for _, v := range []string{"1", "yes", "TRUE ", ""} {
		s, err := Resolve(nil, mapLookup(map[string]string{EnvCI: v}))
		require.NoError(t, err)
		assert.False(t, s.Snapshot.CI, "IS_CI=%q", v)
	}
}

func TestResolve_InvalidTimeout(t *testing.T) {
	_, err := Resolve(&File{Timeout: "soon"}, mapLookup(nil))
	assert.Error(t, err)

	_, err = Resolve(&File{Timeout: "-1s"}, mapLookup(nil))
	assert.Error(t, err)
}

func TestReadEnvFile(t *testing.T) {
	dir := t.TempDir()

	vars, err := ReadEnvFile(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Empty(t, vars)

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SNAPSHOT_DIFF_TOOL=ksdiff\nIS_CI=true\n"), 0644))
	vars, err = ReadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ksdiff", vars[EnvDiffTool])
	assert.Equal(t, "true", vars[EnvCI])
}

func TestLayered(t *testing.T) {
	t.Setenv(EnvDiffTool, "from-process")
	lookup := Layered(map[string]string{EnvDiffTool: "from-dotenv", EnvLedger: "dotenv.db"})

	v, ok := lookup(EnvDiffTool)
	assert.True(t, ok)
	assert.Equal(t, "from-process", v)

	v, ok = lookup(EnvLedger)
	assert.True(t, ok)
	assert.Equal(t, "dotenv.db", v)
}

func TestFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: 3s\n"), 0644))

	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvCI, "true")

	s, err := FromEnvironment(nil)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, s.Timeout)
	assert.True(t, s.Snapshot.CI)
}
