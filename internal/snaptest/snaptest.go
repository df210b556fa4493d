package snaptest

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/roach88/snapcheck/internal/config"
	"github.com/roach88/snapcheck/internal/ledger"
	"github.com/roach88/snapcheck/internal/snapshot"
)

// Option adjusts a single assertion.
type Option func(*options)

type options struct {
	name        string
	record      bool
	snapshotDir string
	timeout     time.Duration
	reference   any
}

// Named replaces the test name in the reference file name.
func Named(name string) Option {
	return func(o *options) { o.name = name }
}

// Record forces record mode for this assertion.
func Record() Option {
	return func(o *options) { o.record = true }
}

// SnapshotDir stores the reference in dir instead of the conventional
// __Snapshots__ directory.
func SnapshotDir(dir string) Option {
	return func(o *options) { o.snapshotDir = dir }
}

// Timeout bounds the wait for the artifact.
func Timeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Reference compares against ref instead of the file on disk. ref must
// have the strategy's artifact type.
func Reference(ref any) Option {
	return func(o *options) { o.reference = ref }
}

var (
	defaultsMu sync.Mutex
	recordAll  bool
	diffTool   string
)

// SetRecordAll turns record mode on or off for every later assertion in
// the process. The environment can only add to it.
func SetRecordAll(on bool) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	recordAll = on
}

// SetDiffTool sets the diff command quoted in mismatch messages. A
// non-empty value takes precedence over SNAPSHOT_DIFF_TOOL.
func SetDiffTool(tool string) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	diffTool = tool
}

// Assert verifies value under strategy and reports a failure through
// t.Error. It returns true when the artifact matched.
func Assert[V, F any](t testing.TB, value func() (V, error), strategy snapshot.Strategy[V, F], opts ...Option) bool {
	t.Helper()
	_, file, _, _ := runtime.Caller(1)
	ok, _ := verify(t, file, value, strategy, collect(opts))
	return ok
}

// AssertEach verifies value under each strategy in order.
// Mismatches are reported and the loop continues; an error from value is
// reported once and ends the loop.
func AssertEach[V, F any](t testing.TB, value func() (V, error), strategies []snapshot.Strategy[V, F], opts ...Option) bool {
	t.Helper()
	_, file, _, _ := runtime.Caller(1)
	o := collect(opts)

	passed := true
	for _, s := range strategies {
		ok, aborted := verify(t, file, value, s, o)
		passed = passed && ok
		if aborted {
			return false
		}
	}
	return passed
}

// AssertNamed verifies value under each named strategy, visiting names in
// sorted order. Each name becomes the reference file's identifier.
// Failure handling is as in AssertEach.
func AssertNamed[V, F any](t testing.TB, value func() (V, error), strategies map[string]snapshot.Strategy[V, F], opts ...Option) bool {
	t.Helper()
	_, file, _, _ := runtime.Caller(1)
	o := collect(opts)

	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	passed := true
	for _, name := range names {
		named := o
		named.name = name
		ok, aborted := verify(t, file, value, strategies[name], named)
		passed = passed && ok
		if aborted {
			return false
		}
	}
	return passed
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// verify runs one engine call. aborted is true when value itself failed.
func verify[V, F any](t testing.TB, sourceFile string, value func() (V, error), strategy snapshot.Strategy[V, F], o options) (ok, aborted bool) {
	t.Helper()

	settings, err := config.FromEnvironment(testLogger(t))
	if err != nil {
		t.Errorf("snapshot configuration: %v", err)
		return false, true
	}
	cfg := settings.Snapshot

	defaultsMu.Lock()
	cfg.RecordAll = cfg.RecordAll || recordAll
	if diffTool != "" {
		cfg.DiffTool = diffTool
	}
	defaultsMu.Unlock()

	if cfg.Interactive {
		cfg.Attach = func(a snapshot.Attachment) {
			t.Logf("attachment %s (%s, %d bytes)", a.Name, a.MediaType, len(a.Data))
		}
	}
	if settings.Ledger != "" {
		if l, err := sharedLedger(settings.Ledger); err != nil {
			t.Logf("snapshot ledger disabled: %v", err)
		} else {
			cfg.Observer = l
		}
	}

	opts := snapshot.Options[F]{
		Name:        o.name,
		Record:      o.record,
		SnapshotDir: o.snapshotDir,
		Timeout:     o.timeout,
		SourceFile:  sourceFile,
		TestName:    t.Name(),
	}
	if opts.Timeout == 0 {
		opts.Timeout = settings.Timeout
	}
	if o.reference != nil {
		ref, ok := o.reference.(F)
		if !ok {
			var zero F
			t.Errorf("snapshot reference has type %T, strategy expects %T", o.reference, zero)
			return false, false
		}
		opts.Reference = &ref
	}

	if opts.Name == "" {
		loc := snapshot.Locate(snapshot.LocateInput{
			SourceFile:    sourceFile,
			TestName:      t.Name(),
			SnapshotDir:   opts.SnapshotDir,
			DumpPath:      cfg.DumpPath,
			PathExtension: strategy.PathExtension,
		})
		if n := counterFor(t).Next(loc.Current); n > 1 {
			opts.Name = t.Name() + " " + strconv.Itoa(n)
		}
	}

	// A value that errors or panics ends the batch; Verify still reports it.
	var valueErr error
	guarded := func() (v V, err error) {
		defer func() {
			if r := recover(); r != nil {
				valueErr = fmt.Errorf("value panicked: %v", r)
				panic(r)
			}
		}()
		v, err = value()
		if err != nil {
			valueErr = err
		}
		return v, err
	}

	failure := snapshot.Verify(t.Context(), cfg, guarded, strategy, opts)
	if failure == nil {
		return true, false
	}
	t.Error(failure.Message)
	return false, valueErr != nil
}

var counters sync.Map // testing.TB -> *snapshot.Counter

// counterFor returns the per-test counter, dropped when the test ends.
func counterFor(t testing.TB) *snapshot.Counter {
	if c, ok := counters.Load(t); ok {
		return c.(*snapshot.Counter)
	}
	c, loaded := counters.LoadOrStore(t, snapshot.NewCounter())
	if !loaded {
		t.Cleanup(func() { counters.Delete(t) })
	}
	return c.(*snapshot.Counter)
}

var (
	ledgersMu sync.Mutex
	ledgers   = map[string]*ledger.Ledger{}
)

// sharedLedger opens each ledger path once per process so that one test
// binary is one run. The handles live until the process exits.
func sharedLedger(path string) (*ledger.Ledger, error) {
	ledgersMu.Lock()
	defer ledgersMu.Unlock()

	if l, ok := ledgers[path]; ok {
		return l, nil
	}
	l, err := ledger.Open(path)
	if err != nil {
		return nil, err
	}
	ledgers[path] = l
	return l, nil
}

// testLogger sends engine logs to the test log. Debug records are kept
// only under go test -v.
func testLogger(t testing.TB) *slog.Logger {
	level := slog.LevelInfo
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: level}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
