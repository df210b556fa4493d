// Package config builds snapshot.Config at the outermost boundary.
//
// Sources, lowest to highest precedence:
//
//  1. Built-in defaults (5s timeout, no ledger)
//  2. The YAML file named by SNAPSHOT_CONFIG or the CLI --config flag
//  3. A .env file in the working directory (read, never exported)
//  4. The process environment
//
// Example file:
//
//	record_all: false
//	diff_tool: ksdiff
//	timeout: 10s
//	ledger: .snapshots.db
//
// This is the only package that reads environment variables. Resolution
// runs per assertion, so a change to the environment mid-run is consistent
// per call, not across the process.
package config
