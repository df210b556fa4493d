// Package snapstore inventories snapshot stores on disk.
//
// A store is any directory holding reference files and, after a mismatch,
// their "-failed" copies. Scan walks a tree and only looks inside
// __Snapshots__ directories; ScanFlat lists a single directory as-is, which
// is what a dump path or an explicit snapshot directory produces.
//
// Accept and Clean are the two operator actions: promote a failed copy to
// be the new reference, or throw it away.
package snapstore
