package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/snapcheck/internal/ledger"
	"github.com/roach88/snapcheck/internal/snapshot"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	RunID    string
	Kind     string
	Limit    int
	Runs     bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Read the outcome ledger",
		Long: `List recorded verification outcomes in sequence order.

The ledger path comes from --db, otherwise from the "ledger" config key or
SNAPSHOT_LEDGER.

Examples:
  snapcheck history --db ./snapshots.db
  snapcheck history --runs
  snapcheck history --run 0192f0c4-... --kind mismatch --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the ledger database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "only outcomes of this run")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only outcomes of this kind (matched, mismatch, recorded, ...)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of outcomes (0 = all)")
	cmd.Flags().BoolVar(&opts.Runs, "runs", false, "summarise runs instead of listing outcomes")
	return cmd
}

var validKinds = []snapshot.FailureKind{
	snapshot.KindMatched,
	snapshot.KindProduction,
	snapshot.KindTimeout,
	snapshot.KindProtocol,
	snapshot.KindIO,
	snapshot.KindMismatch,
	snapshot.KindRecorded,
	snapshot.KindMissingReference,
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	path := opts.Database
	if path == "" {
		settings, err := loadSettings(opts.RootOptions)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
		}
		path = settings.Ledger
	}
	if path == "" {
		return f.Fail(ExitCommandError, ErrCodeBadInput, "no ledger configured: pass --db or set SNAPSHOT_LEDGER", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, fmt.Sprintf("ledger not found: %s", path), nil)
	}

	kind := snapshot.FailureKind(opts.Kind)
	if opts.Kind != "" && !containsKind(kind) {
		return f.Fail(ExitCommandError, ErrCodeBadInput, fmt.Sprintf("invalid kind %q", opts.Kind), validKinds)
	}
	if opts.Limit < 0 {
		return f.Fail(ExitCommandError, ErrCodeBadInput, "limit must not be negative", nil)
	}

	l, err := ledger.Open(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, err.Error(), nil)
	}
	defer func() {
		if closeErr := l.Close(); closeErr != nil {
			opts.logger(cmd).Error("error closing ledger", "error", closeErr)
		}
	}()
	f.VerboseLog("reading ledger %s", path)

	ctx := cmd.Context()
	if opts.Runs {
		runs, err := l.Runs(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeLedger, err.Error(), nil)
		}
		return f.Result(runs, func(w io.Writer) { writeRuns(w, runs) })
	}

	entries, err := l.Entries(ctx, ledger.Filter{RunID: opts.RunID, Kind: kind, Limit: opts.Limit})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLedger, err.Error(), nil)
	}
	return f.Result(entries, func(w io.Writer) { writeEntries(w, entries, opts.Verbose) })
}

func containsKind(kind snapshot.FailureKind) bool {
	for _, k := range validKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func writeRuns(w io.Writer, runs []ledger.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  seq %d  %d outcome(s), %d failed\n", r.ID, r.StartedSeq, r.Total, r.Failed)
	}
}

func writeEntries(w io.Writer, entries []ledger.Entry, verbose bool) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No outcomes recorded.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "[%d] %-17s %s  %s\n", e.Seq, e.Kind, e.TestName, e.Reference)
		if verbose && e.Message != "" {
			for _, line := range strings.Split(e.Message, "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}
}
