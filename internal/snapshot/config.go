package snapshot

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// DefaultTimeout bounds the wait for an artifact when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Config holds the process-level mode switches.
//
// It is built once at the outermost boundary (see internal/config) and
// passed explicitly to every Verify call. The engine never reads the
// environment itself.
type Config struct {
	// RecordAll forces record mode for every call.
	RecordAll bool

	// DiffTool is an external diff command. When set, failure messages
	// start with `<DiffTool> "<current>" "<failed>"`.
	DiffTool string

	// CI disables every write: no directory creation, no reference
	// recording, no failed file. Comparison is unaffected.
	CI bool

	// DumpPath replaces the snapshot directory with a flat directory and
	// re-enables writes in CI mode. The directory must already exist.
	DumpPath string

	// Interactive gates attachment surfacing. Ignored in CI mode.
	Interactive bool

	// Attach receives mismatch attachments when Interactive is set.
	Attach func(Attachment)

	// Observer is told the outcome of every call. Optional.
	Observer Observer

	// Logger receives structured engine logs. Defaults to a discard logger.
	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writesAllowed reports whether reference/failed files may be written.
// A dump path bypasses the CI suppression rule.
func (c Config) writesAllowed() bool {
	return !c.CI || c.DumpPath != ""
}

// Options are the per-call inputs of Verify.
type Options[F any] struct {
	// Name overrides the test identifier segment. Defaults to TestName.
	Name string

	// Record forces record mode for this call.
	Record bool

	// SnapshotDir overrides the conventional snapshot directory.
	SnapshotDir string

	// Timeout bounds the artifact wait. Zero means DefaultTimeout.
	Timeout time.Duration

	// SourceFile is the path of the file containing the assertion.
	SourceFile string

	// TestName identifies the running test.
	TestName string

	// Reference, when set, is compared against instead of the file on disk.
	Reference *F
}

// Outcome is what an Observer learns about one Verify call.
type Outcome struct {
	TestName  string
	Reference string
	Kind      FailureKind
	Message   string
}

// Observer is notified after every Verify call, including passes.
// Errors are logged and never alter the verification result.
type Observer interface {
	Observe(ctx context.Context, outcome Outcome) error
}
