// Package snapshot implements reference-based snapshot verification.
//
// A Strategy turns a value into an artifact and names the Diffing (codec +
// comparator) for that artifact's format. Verify drives the workflow:
//
//  1. Locate the reference file (pure path derivation, see Locate)
//  2. Produce the artifact, waiting at most Options.Timeout
//  3. Record the artifact as the new reference, or
//  4. Decode the reference and compare, writing a "-failed" copy on mismatch
//
// # Reference Layout
//
//	<source dir>/<base>/__Snapshots__/<base>-<sanitized test name>.<ext>
//	<source dir>/<base>/__Snapshots__/<base>-<sanitized test name>-failed.<ext>
//
// SnapshotDir replaces the directory; Config.DumpPath replaces it with a
// flat directory that must already exist.
//
// # Modes
//
//   - Record mode (Options.Record or Config.RecordAll): always write the
//     reference and report that it was recorded.
//   - CI mode (Config.CI): never write anything unless DumpPath is set.
//     Missing references and mismatches are still reported.
//
// # Configuration
//
// Config is explicit. Nothing in this package reads environment variables;
// see internal/config for the boundary that does.
//
// # Known Limitations
//
// A timed-out producer is not cancelled. Writes to the same resolved path
// from concurrent tests are not synchronised.
package snapshot
