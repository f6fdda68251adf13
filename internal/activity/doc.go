// Package activity defines the closed set of exercise categories that key the
// media library, the alias and corruption tables used to resolve directory
// names, and the episode ledger used to allocate collision-free episode
// numbers per (activity, season) pair.
package activity
