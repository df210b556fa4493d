// Package ledger provides a SQLite-backed history of snapshot outcomes.
//
// A Ledger is a snapshot.Observer: pass it as Config.Observer and every
// verification call is appended as one row, passes included. The CLI's
// history command reads it back.
//
// # Ordering
//
// Rows carry a logical seq from Clock, resumed from MAX(seq) on open. All
// listings use ORDER BY seq ASC, id ASC COLLATE BINARY; timestamps are
// never stored.
//
// # Runs
//
// Each opened Ledger writes under a single run id (UUIDv7 by default),
// created on the first observed outcome.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: parallel test binaries share one file
//   - foreign_keys=ON: outcomes must reference an existing run
package ledger
