package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/snapcheck/internal/snapstore"
)

// ActionResult is the payload of accept and clean.
type ActionResult struct {
	Action string   `json:"action"`
	Files  []string `json:"files"`
}

// NewAcceptCommand creates the accept command.
func NewAcceptCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "accept [dir]",
		Short: "Promote failed snapshots to references",
		Long: `Replace each reference with its "-failed" copy.

Run this after reviewing a diff to record the new output as the
reference. Use --filter to accept a subset.

Examples:
  snapcheck accept
  snapcheck accept ./internal --filter "render_test-TestButton*"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(rootOpts, cmd, targetDir(args), filter, "accepted", snapstore.Accept)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only entries whose name matches this glob")
	return cmd
}

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "clean [dir]",
		Short: "Delete failed snapshots",
		Long: `Delete every "-failed" copy, leaving references untouched.

Examples:
  snapcheck clean
  snapcheck clean /tmp/snapshots --flat`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(rootOpts, cmd, targetDir(args), filter, "cleaned", snapstore.Clean)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only entries whose name matches this glob")
	return cmd
}

func runAction(opts *RootOptions, cmd *cobra.Command, dir, filter, action string, apply func(snapstore.Entry) error) error {
	entries, err := scan(opts, cmd, dir, filter)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)
	log := opts.logger(cmd)

	result := ActionResult{Action: action, Files: []string{}}
	for _, e := range entries {
		if !e.Pending() {
			continue
		}
		if err := apply(e); err != nil {
			return f.Fail(ExitCommandError, ErrCodeFileOp, err.Error(), map[string]any{"done": result.Files})
		}
		log.Debug("snapshot "+action, "reference", e.Reference)
		result.Files = append(result.Files, e.Reference)
	}

	return f.Result(result, func(w io.Writer) {
		for _, file := range result.Files {
			fmt.Fprintf(w, "%s %s\n", action, file)
		}
		fmt.Fprintf(w, "%d snapshot(s) %s\n", len(result.Files), action)
	})
}
