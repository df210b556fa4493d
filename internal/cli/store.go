package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/snapcheck/internal/config"
	"github.com/roach88/snapcheck/internal/snapstore"
)

// loadSettings resolves configuration the way test binaries do, except
// that --config takes precedence over SNAPSHOT_CONFIG.
func loadSettings(opts *RootOptions) (*config.Settings, error) {
	dotenv, err := config.ReadEnvFile(config.DefaultEnvFile)
	if err != nil {
		return nil, err
	}
	lookup := config.Layered(dotenv)

	path := opts.ConfigFile
	if path == "" {
		path, _ = lookup(config.EnvConfigFile)
	}

	var file *config.File
	if path != "" {
		if file, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	return config.Resolve(file, lookup)
}

// targetDir picks the directory argument, falling back to the working
// directory.
func targetDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// scan inventories dir per --flat and applies an optional name filter.
func scan(opts *RootOptions, cmd *cobra.Command, dir, filter string) ([]snapstore.Entry, error) {
	f := opts.formatter(cmd)

	var entries []snapstore.Entry
	var err error
	if opts.Flat {
		entries, err = snapstore.ScanFlat(dir)
	} else {
		entries, err = snapstore.Scan(dir)
	}
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeScan, err.Error(), map[string]string{"dir": dir})
	}
	f.VerboseLog("scanned %s: %d entries", dir, len(entries))

	if filter == "" {
		return entries, nil
	}
	kept := entries[:0]
	for _, e := range entries {
		ok, err := e.Match(filter)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeBadInput, err.Error(), nil)
		}
		if ok {
			kept = append(kept, e)
		}
	}
	return kept, nil
}
