package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/snapcheck/internal/strategies"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Filter  string
	NoColor bool
}

// FileDiff describes one pending failure.
type FileDiff struct {
	Reference     string `json:"reference"`
	Failed        string `json:"failed"`
	Binary        bool   `json:"binary"`
	ReferenceSize int    `json:"reference_size"`
	FailedSize    int    `json:"failed_size"`
	Diff          string `json:"diff,omitempty"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff [dir]",
		Short: "Show differences for pending failures",
		Long: `Print a unified diff between each reference and its "-failed" copy.

Text files get a line diff; binary files (images, MessagePack) get a
size summary.

Examples:
  snapcheck diff
  snapcheck diff ./internal --filter "*Button*"
  snapcheck diff --no-color --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, cmd, targetDir(args))
		},
	}
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only entries whose name matches this glob")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "disable coloured output")
	return cmd
}

func runDiff(opts *DiffOptions, cmd *cobra.Command, dir string) error {
	entries, err := scan(opts.RootOptions, cmd, dir, opts.Filter)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	diffs := []FileDiff{}
	for _, e := range entries {
		if !e.Pending() {
			continue
		}
		reference, err := readOptional(e.Reference)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeFileOp, err.Error(), nil)
		}
		failed, err := os.ReadFile(e.Failed)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeFileOp, err.Error(), nil)
		}

		d := FileDiff{
			Reference:     e.Reference,
			Failed:        e.Failed,
			ReferenceSize: len(reference),
			FailedSize:    len(failed),
			Binary:        !isText(reference) || !isText(failed),
		}
		if !d.Binary {
			d.Diff = strategies.UnifiedDiff(string(reference), string(failed))
		}
		diffs = append(diffs, d)
	}

	return f.Result(diffs, func(w io.Writer) {
		writeDiffs(w, diffs, !opts.NoColor)
	})
}

func writeDiffs(w io.Writer, diffs []FileDiff, colored bool) {
	if len(diffs) == 0 {
		fmt.Fprintln(w, "No failed snapshots pending.")
		return
	}

	header := color.New(color.Bold)
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)
	for _, c := range []*color.Color{header, added, removed, hunk} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for i, d := range diffs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header.Fprintf(w, "%s\n", d.Reference)
		if d.Binary {
			fmt.Fprintf(w, "binary files differ: reference %d bytes, failed %d bytes\n", d.ReferenceSize, d.FailedSize)
			continue
		}
		if d.Diff == "" {
			fmt.Fprintln(w, "contents are identical")
			continue
		}
		for _, line := range strings.SplitAfter(d.Diff, "\n") {
			if line == "" {
				continue
			}
			switch {
			case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
				header.Fprint(w, line)
			case strings.HasPrefix(line, "@@"):
				hunk.Fprint(w, line)
			case strings.HasPrefix(line, "+"):
				added.Fprint(w, line)
			case strings.HasPrefix(line, "-"):
				removed.Fprint(w, line)
			default:
				fmt.Fprint(w, line)
			}
		}
	}
}

// readOptional reads path; a missing file reads as empty.
func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func isText(data []byte) bool {
	return utf8.Valid(data) && !bytes.ContainsRune(data, 0)
}
