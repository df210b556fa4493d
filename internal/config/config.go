package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/snapcheck/internal/snapshot"
)

// Environment variables read at the outermost boundary.
const (
	EnvCI          = "IS_CI"
	EnvDumpPath    = "SNAPSHOT_DUMP_PATH"
	EnvInteractive = "SNAPSHOT_INTERACTIVE"
	EnvRecord      = "SNAPSHOT_RECORD"
	EnvDiffTool    = "SNAPSHOT_DIFF_TOOL"
	EnvLedger      = "SNAPSHOT_LEDGER"
	EnvConfigFile  = "SNAPSHOT_CONFIG"
)

// DefaultEnvFile is the dotenv file consulted below the process environment.
const DefaultEnvFile = ".env"

// File is the on-disk configuration (YAML).
type File struct {
	// RecordAll forces record mode for every assertion.
	RecordAll bool `yaml:"record_all"`

	// DiffTool is the external diff command template.
	DiffTool string `yaml:"diff_tool,omitempty"`

	// DumpPath overrides the snapshot directory with a flat layout.
	DumpPath string `yaml:"dump_path,omitempty"`

	// Timeout is the default artifact wait, e.g. "10s".
	Timeout string `yaml:"timeout,omitempty"`

	// Ledger is the SQLite outcome ledger path. Empty disables the ledger.
	Ledger string `yaml:"ledger,omitempty"`

	// Interactive enables attachment surfacing.
	Interactive bool `yaml:"interactive"`

	// CI forces CI mode regardless of the environment.
	CI bool `yaml:"ci"`
}

// Settings is the fully resolved configuration.
type Settings struct {
	Snapshot snapshot.Config
	Timeout  time.Duration
	Ledger   string
}

// Load reads a YAML configuration file.
// Unknown fields are rejected so typos surface as errors.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &f, nil
}

// ReadEnvFile reads a dotenv file without touching the process environment.
// A missing file yields an empty map.
func ReadEnvFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return vars, nil
}

// Lookup finds an environment variable.
type Lookup func(key string) (string, bool)

// Layered returns a Lookup that prefers the process environment and falls
// back to the given dotenv variables.
func Layered(dotenv map[string]string) Lookup {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

// Resolve merges defaults, the config file (may be nil) and the environment.
// The environment wins over the file.
func Resolve(file *File, lookup Lookup) (*Settings, error) {
	if file == nil {
		file = &File{}
	}

	s := &Settings{
		Snapshot: snapshot.Config{
			RecordAll:   file.RecordAll,
			DiffTool:    file.DiffTool,
			CI:          file.CI,
			DumpPath:    file.DumpPath,
			Interactive: file.Interactive,
		},
		Timeout: snapshot.DefaultTimeout,
		Ledger:  file.Ledger,
	}

	if file.Timeout != "" {
		d, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", file.Timeout, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid timeout %q: must be positive", file.Timeout)
		}
		s.Timeout = d
	}

	if v, ok := lookup(EnvCI); ok {
		s.Snapshot.CI = s.Snapshot.CI || isTrue(v)
	}
	if v, ok := lookup(EnvRecord); ok {
		s.Snapshot.RecordAll = s.Snapshot.RecordAll || isTrue(v)
	}
	if v, ok := lookup(EnvInteractive); ok {
		s.Snapshot.Interactive = isTrue(v)
	}
	if v, ok := lookup(EnvDumpPath); ok && v != "" {
		s.Snapshot.DumpPath = v
	}
	if v, ok := lookup(EnvDiffTool); ok && v != "" {
		s.Snapshot.DiffTool = v
	}
	if v, ok := lookup(EnvLedger); ok && v != "" {
		s.Ledger = v
	}

	return s, nil
}

// FromEnvironment resolves settings the way test binaries do: the file
// named by SNAPSHOT_CONFIG (if any), then .env, then the process
// environment.
func FromEnvironment(logger *slog.Logger) (*Settings, error) {
	dotenv, err := ReadEnvFile(DefaultEnvFile)
	if err != nil {
		return nil, err
	}
	lookup := Layered(dotenv)

	var file *File
	if path, ok := lookup(EnvConfigFile); ok && path != "" {
		file, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	s, err := Resolve(file, lookup)
	if err != nil {
		return nil, err
	}
	s.Snapshot.Logger = logger
	return s, nil
}

// isTrue matches the CI signal contract: only the exact string "true"
// enables a flag.
func isTrue(v string) bool {
	return v == "true"
}
