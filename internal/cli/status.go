package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/snapcheck/internal/snapstore"
)

// StatusResult is the status command's payload.
type StatusResult struct {
	Dir        string            `json:"dir"`
	Entries    []snapstore.Entry `json:"entries"`
	References int               `json:"references"`
	Pending    int               `json:"pending"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "status [dir]",
		Short: "List references and pending failures",
		Long: `List every snapshot reference under dir and flag the ones with a
"-failed" copy waiting for review.

Exit codes:
  0 - No failed snapshots pending
  1 - One or more failed snapshots pending
  2 - Command error

Examples:
  snapcheck status
  snapcheck status ./internal --format json
  snapcheck status /tmp/snapshots --flat`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd, targetDir(args), filter)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only entries whose name matches this glob")
	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command, dir, filter string) error {
	entries, err := scan(opts, cmd, dir, filter)
	if err != nil {
		return err
	}

	result := StatusResult{Dir: dir, Entries: entries}
	for _, e := range entries {
		if e.HasReference {
			result.References++
		}
		if e.Pending() {
			result.Pending++
		}
	}

	f := opts.formatter(cmd)
	if err := f.Result(result, func(w io.Writer) { writeStatus(w, result) }); err != nil {
		return err
	}
	if result.Pending > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d failed snapshot(s) pending", result.Pending))
	}
	return nil
}

func writeStatus(w io.Writer, r StatusResult) {
	if len(r.Entries) == 0 {
		fmt.Fprintf(w, "No snapshots found in %s.\n", r.Dir)
		return
	}
	for _, e := range r.Entries {
		switch {
		case e.Pending() && !e.HasReference:
			fmt.Fprintf(w, "✗ %s (failed, no reference)\n", e.Reference)
		case e.Pending():
			fmt.Fprintf(w, "✗ %s\n", e.Reference)
		default:
			fmt.Fprintf(w, "✓ %s\n", e.Reference)
		}
	}
	fmt.Fprintf(w, "\n%d reference(s), %d pending\n", r.References, r.Pending)
}
