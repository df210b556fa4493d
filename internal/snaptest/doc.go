// Package snaptest adapts snapshot.Verify to Go tests.
//
// Assert checks one value against one strategy:
//
//	func TestRender(t *testing.T) {
//		snaptest.Assert(t, func() (string, error) { return render(), nil }, strategies.Lines())
//	}
//
// The first run records the reference under
// <dir>/<file>/__Snapshots__/<file>-TestRender.txt and fails so the new
// file gets reviewed; later runs compare against it.
//
// AssertEach and AssertNamed check one value against several strategies.
// A mismatch in one strategy does not stop the others. An error returned by
// the value function does.
//
// Configuration is read from the environment on every call (see
// internal/config). SetRecordAll and SetDiffTool set process-wide defaults
// from code.
package snaptest
