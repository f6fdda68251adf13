// Package repair validates the media tree before parsing: episodes sitting
// under corrupted location names are moved to their canonical activity
// folder, and duplicate (activity, season, episode) claims are renumbered.
// The engine runs bounded detect/repair passes until the tree is clean, and
// counts identically in dry-run and live mode.
package repair
