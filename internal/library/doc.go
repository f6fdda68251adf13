// Package library scans the on-disk media tree. It produces the filesystem
// episode ledger and the set of already-downloaded class IDs, and exposes the
// shared folder-pattern primitives the repair engine builds on.
package library
