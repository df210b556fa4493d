package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// Verify produces an artifact from value, then records it or compares it
// with the stored reference.
//
// Returns nil when the artifact matches. Every other path returns a Failure
// whose Message is meant to be reported verbatim:
//
//   - record mode (or no reference yet): the artifact is written as the new
//     reference, unless CI mode forbids writes, and a Failure explains what
//     happened
//   - mismatch: the produced artifact is written to the failed file
//     (again unless CI forbids it) and the Failure carries a diff-tool line
//     plus the comparator's text
//   - production, timeout, protocol and I/O problems become Failures too;
//     panics in the value or the codecs are recovered
//
// Verify performs no retries and never cancels the producer.
func Verify[V, F any](ctx context.Context, cfg Config, value func() (V, error), strategy Strategy[V, F], opts Options[F]) (failure *Failure) {
	log := cfg.logger()
	recording := opts.Record || cfg.RecordAll

	identifier := opts.Name
	if identifier == "" {
		identifier = opts.TestName
	}
	loc := Locate(LocateInput{
		SourceFile:    opts.SourceFile,
		TestName:      identifier,
		SnapshotDir:   opts.SnapshotDir,
		DumpPath:      cfg.DumpPath,
		PathExtension: strategy.PathExtension,
	})

	defer func() {
		if r := recover(); r != nil {
			failure = newFailure(KindProduction, fmt.Sprint(r))
		}
		notify(ctx, cfg, log, opts.TestName, loc.Current, failure)
	}()

	log.Debug("verifying snapshot",
		"test", opts.TestName,
		"reference", loc.Current,
		"recording", recording,
		"ci", cfg.CI,
		"dump_path", cfg.DumpPath,
	)

	if !cfg.CI && cfg.DumpPath == "" {
		if err := os.MkdirAll(loc.Dir, 0755); err != nil {
			return newFailure(KindIO, err.Error())
		}
	}

	artifact, fail := produce(ctx, value, strategy, opts.Timeout)
	if fail != nil {
		return fail
	}

	if !recording && (fileExists(loc.Current) || opts.Reference != nil) {
		return compare(cfg, log, strategy, opts, loc, artifact)
	}
	return record(cfg, log, strategy.Diffing, opts.TestName, loc, artifact, recording)
}

// produce runs the value producer and waits for the strategy's artifact.
func produce[V, F any](ctx context.Context, value func() (V, error), strategy Strategy[V, F], timeout time.Duration) (F, *Failure) {
	var zero F
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	v, err := value()
	if err != nil {
		return zero, newFailure(KindProduction, err.Error())
	}

	pending := strategy.Snapshot(v)
	if pending == nil {
		return zero, newFailure(KindProtocol, ErrNoSnapshot.Error())
	}

	artifact, err := pending.Wait(ctx, timeout)
	switch {
	case err == nil:
		return artifact, nil
	case errors.Is(err, ErrTimeout):
		return zero, newFailure(KindTimeout, timeoutMessage(timeout))
	case errors.Is(err, ErrNoSnapshot):
		return zero, newFailure(KindProtocol, ErrNoSnapshot.Error())
	default:
		return zero, newFailure(KindProduction, err.Error())
	}
}

func record[F any](cfg Config, log *slog.Logger, diffing Diffing[F], testName string, loc Location, artifact F, recording bool) *Failure {
	kind := KindMissingReference
	headline := "No reference was found on disk."
	if recording {
		kind = KindRecorded
		headline = "Record mode is on."
	}

	// CI must never create or mutate a baseline.
	if !cfg.writesAllowed() {
		return newFailure(kind, headline)
	}

	data, err := diffing.Encode(artifact)
	if err != nil {
		return newFailure(KindIO, err.Error())
	}
	if err := os.WriteFile(loc.Current, data, 0644); err != nil {
		return newFailure(KindIO, err.Error())
	}
	log.Info("snapshot recorded", "test", testName, "reference", loc.Current, "bytes", len(data))

	var b strings.Builder
	fmt.Fprintf(&b, "%s Automatically recorded snapshot: …\n\n", headline)
	fmt.Fprintf(&b, "open %q\n\n", fileURL(loc.Current))
	if recording {
		fmt.Fprintf(&b, "Turn record mode off and re-run %q to assert against the newly-recorded snapshot.", testName)
	} else {
		fmt.Fprintf(&b, "Re-run %q to assert against the newly-recorded snapshot.", testName)
	}
	return newFailure(kind, b.String())
}

func compare[V, F any](cfg Config, log *slog.Logger, strategy Strategy[V, F], opts Options[F], loc Location, produced F) *Failure {
	diffing := strategy.Diffing

	var data []byte
	var err error
	if opts.Reference != nil {
		data, err = diffing.Encode(*opts.Reference)
	} else {
		data, err = os.ReadFile(loc.Current)
	}
	if err != nil {
		return newFailure(KindIO, err.Error())
	}

	reference, err := diffing.Decode(data)
	if err != nil {
		return newFailure(KindIO, err.Error())
	}

	if strategy.Degenerate != nil && strategy.Degenerate(produced) {
		log.Debug("degenerate artifact replaced by reference", "test", opts.TestName, "reference", loc.Current)
		produced = reference
	}

	diff := diffing.Compare(reference, produced)
	if diff == nil {
		return nil
	}

	if cfg.writesAllowed() {
		failedData, err := diffing.Encode(produced)
		if err != nil {
			return newFailure(KindIO, err.Error())
		}
		if err := os.WriteFile(loc.Failed, failedData, 0644); err != nil {
			return newFailure(KindIO, err.Error())
		}
		log.Info("snapshot mismatch written", "test", opts.TestName, "failed", loc.Failed)
	}

	if cfg.Interactive && !cfg.CI && cfg.Attach != nil {
		for _, a := range diff.Attachments {
			cfg.Attach(a)
		}
	}

	return newFailure(KindMismatch, diffToolLine(cfg.DiffTool, loc)+"\n\n"+strings.TrimSpace(diff.Message))
}

// diffToolLine renders the invocation an operator can paste to inspect the
// mismatch.
func diffToolLine(tool string, loc Location) string {
	if tool != "" {
		return tool + " " + shellArg(loc.Current) + " " + shellArg(loc.Failed)
	}
	return fmt.Sprintf("@−\n\"%s\"\n@+\n\"%s\"", fileURL(loc.Current), fileURL(loc.Failed))
}

func timeoutMessage(timeout time.Duration) string {
	seconds := strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64)
	return fmt.Sprintf("Exceeded timeout of %s seconds waiting for snapshot.\n\n"+
		"This can happen when asynchronously produced content (for example, content "+
		"that loads from an external source) has not settled before the deadline. "+
		"Make sure production completes, or raise the Timeout option if the delay is unavoidable.", seconds)
}

func notify(ctx context.Context, cfg Config, log *slog.Logger, testName, reference string, failure *Failure) {
	outcome := Outcome{TestName: testName, Reference: reference, Kind: KindMatched}
	if failure != nil {
		outcome.Kind = failure.Kind
		outcome.Message = failure.Message
		log.Debug("snapshot verification failed", "test", testName, "kind", failure.Kind)
	}
	if cfg.Observer == nil {
		return
	}
	if err := cfg.Observer.Observe(ctx, outcome); err != nil {
		log.Warn("outcome observer failed", "test", testName, "error", err)
	}
}

// shellArg double-quotes path when that is safe for a POSIX shell and
// falls back to shell escaping otherwise.
func shellArg(path string) string {
	if strings.ContainsAny(path, "\"\\$`!") {
		return shellquote.Join(path)
	}
	return `"` + path + `"`
}

// fileURL renders path as an absolute file:// URL.
func fileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
