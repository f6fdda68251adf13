package repair

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"subtidy/internal/activity"
	"subtidy/internal/fileutil"
	"subtidy/internal/library"
	"subtidy/internal/logging"
	"subtidy/internal/metrics"
	"subtidy/internal/services"
)

// DefaultMaxPasses bounds the detect/repair loop. Resolving corrupted
// locations can surface fresh conflicts, so more than one pass may be
// needed, but the loop must terminate even if repair logic cycles.
const DefaultMaxPasses = 5

// Engine detects and repairs the two defect classes of the media tree:
// corrupted-location folders and duplicate episode numbers.
type Engine struct {
	root      string
	detector  *activity.Detector
	dryRun    bool
	maxPasses int
	logger    *slog.Logger

	// failed holds paths whose repair already failed this run so they are
	// neither retried nor recounted.
	failed map[string]bool
	// countedCorrupted and countedConflicts dedupe the found counters
	// across passes; counters only ever go up within a run.
	countedCorrupted map[string]bool
	countedConflicts map[Key]bool
}

// Options configures an Engine.
type Options struct {
	Root      string
	Detector  *activity.Detector
	DryRun    bool
	MaxPasses int
	Logger    *slog.Logger
}

// NewEngine builds a repair engine for the given media root.
func NewEngine(opts Options) *Engine {
	if opts.Detector == nil {
		opts.Detector = activity.NewDetector(nil)
	}
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultMaxPasses
	}
	return &Engine{
		root:             opts.Root,
		detector:         opts.Detector,
		dryRun:           opts.DryRun,
		maxPasses:        opts.MaxPasses,
		logger:           logging.WithComponent(opts.Logger, "repair"),
		failed:           make(map[string]bool),
		countedCorrupted: make(map[string]bool),
		countedConflicts: make(map[Key]bool),
	}
}

// Run executes the validate/repair state machine and reports overall
// success. A missing media root is fatal because repair was explicitly
// requested; an existing but episode-free tree is a valid empty result.
func (e *Engine) Run(ctx context.Context, rec *metrics.RepairMetrics) (bool, error) {
	if _, err := os.Stat(e.root); errors.Is(err, fs.ErrNotExist) {
		return false, services.Wrap(services.ErrFatal, "repair", "scan",
			fmt.Sprintf("media directory does not exist: %s", e.root), nil)
	}

	logger := logging.WithContext(ctx, e.logger)
	logger.Info("starting directory validation",
		logging.String(logging.FieldPath, e.root),
		logging.Bool("dry_run", e.dryRun))

	placements, err := Scan(e.root, e.detector)
	if err != nil {
		return false, services.Wrap(services.ErrFatal, "repair", "scan", "walk media tree", err)
	}
	view := asView(placements)
	rec.EpisodesScanned = len(view)

	success := true
	for pass := 1; pass <= e.maxPasses; pass++ {
		corrupted := e.pendingCorrupted(view)
		conflicts := e.pendingConflicts(view)
		if len(corrupted) == 0 && len(conflicts) == 0 {
			break
		}
		rec.PassesExecuted++
		logger.Info("repair pass",
			logging.Int("pass", pass),
			logging.Int("corrupted", len(corrupted)),
			logging.Int("conflicts", len(conflicts)))

		changes := 0
		changes += e.repairCorrupted(logger, view, corrupted, rec, &success)
		changes += e.resolveConflicts(logger, view, conflicts, rec, &success)
		if changes == 0 {
			break
		}

		if !e.dryRun {
			placements, err = Scan(e.root, e.detector)
			if err != nil {
				return false, services.Wrap(services.ErrFatal, "repair", "rescan", "walk media tree", err)
			}
			view = asView(placements)
		}
	}

	// Final verification against the real tree. Dry-run verifies the
	// simulated view instead, since the tree was deliberately untouched.
	if !e.dryRun {
		placements, err = Scan(e.root, e.detector)
		if err != nil {
			return false, services.Wrap(services.ErrFatal, "repair", "verify", "walk media tree", err)
		}
		view = asView(placements)
	}
	remainingCorrupted := 0
	for _, p := range view {
		if !p.Corrupted {
			continue
		}
		remainingCorrupted++
		// A deferred move that never resolved, e.g. the destination is
		// blocked by something that is not an episode folder.
		if !e.failed[p.Path] {
			e.failed[p.Path] = true
			rec.CorruptedFailed++
		}
	}
	remainingConflicts := len(detectConflicts(view))
	if remainingCorrupted > 0 || remainingConflicts > 0 {
		logger.Error("defects remain after repair",
			logging.Int("corrupted", remainingCorrupted),
			logging.Int("conflicts", remainingConflicts))
		success = false
	}

	if success {
		logger.Info("directory validation complete",
			logging.Int("passes", rec.PassesExecuted),
			logging.Int("repaired", rec.CorruptedRepaired+rec.ConflictsResolved))
	}
	return success, nil
}

func asView(placements []Placement) []*Placement {
	view := make([]*Placement, len(placements))
	for i := range placements {
		view[i] = &placements[i]
	}
	return view
}

func (e *Engine) pendingCorrupted(view []*Placement) []*Placement {
	var out []*Placement
	for _, p := range view {
		if p.Corrupted && !e.failed[p.Path] {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) pendingConflicts(view []*Placement) []Conflict {
	active := make([]*Placement, 0, len(view))
	for _, p := range view {
		if !e.failed[p.Path] {
			active = append(active, p)
		}
	}
	return detectConflicts(active)
}

// repairCorrupted moves each corrupted placement to its canonical location.
// A destination that already exists is left for the conflict pass rather
// than overwritten; an uninferable activity is a recorded failure.
func (e *Engine) repairCorrupted(logger *slog.Logger, view, corrupted []*Placement, rec *metrics.RepairMetrics, success *bool) int {
	changes := 0
	for _, p := range corrupted {
		if !e.countedCorrupted[p.Path] {
			e.countedCorrupted[p.Path] = true
			rec.CorruptedFound++
		}
		if p.Activity == activity.Unknown {
			logger.Error("cannot infer activity for corrupted location",
				logging.String(logging.FieldPath, p.Path))
			e.failed[p.Path] = true
			rec.CorruptedFailed++
			*success = false
			continue
		}

		dest := filepath.Join(e.root, p.Activity.DisplayName(), p.Instructor, filepath.Base(p.Path))
		if e.destinationOccupied(view, p, dest) {
			// A genuine collision: the conflict pass renumbers one side,
			// then the move is retried on the next pass.
			logger.Warn("destination already exists, deferring to conflict repair",
				logging.String(logging.FieldPath, p.Path),
				logging.String("destination", dest))
			continue
		}

		logger.Info("moving episode out of corrupted location",
			logging.String(logging.FieldPath, p.Path),
			logging.String("destination", dest),
			logging.String(logging.FieldActivity, p.Activity.Name()))

		oldParent := filepath.Dir(p.Path)
		if !e.dryRun {
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				e.recordMoveFailure(logger, p, rec, success, err)
				continue
			}
			if err := fileutil.MoveDir(p.Path, dest); err != nil {
				e.recordMoveFailure(logger, p, rec, success, err)
				continue
			}
		}

		p.Path = dest
		p.Corrupted = false
		rec.CorruptedRepaired++
		changes++

		if e.cleanupParent(view, oldParent) {
			rec.ParentsRemoved++
		}
	}
	return changes
}

func (e *Engine) recordMoveFailure(logger *slog.Logger, p *Placement, rec *metrics.RepairMetrics, success *bool, err error) {
	logger.Error("failed to move episode",
		logging.String(logging.FieldPath, p.Path),
		logging.Error(err))
	e.failed[p.Path] = true
	rec.CorruptedFailed++
	*success = false
}

// destinationOccupied checks both the simulated view and, in live mode, the
// real tree.
func (e *Engine) destinationOccupied(view []*Placement, moving *Placement, dest string) bool {
	for _, p := range view {
		if p != moving && p.Path == dest {
			return true
		}
	}
	if e.dryRun {
		return false
	}
	_, err := os.Stat(dest)
	return err == nil
}

// cleanupParent removes the now-empty chain above a vacated corrupted
// folder. In dry-run the check runs against the simulated view. Returns
// whether any directory was (or would be) removed.
func (e *Engine) cleanupParent(view []*Placement, parent string) bool {
	if parent == e.root {
		return false
	}
	for _, p := range view {
		if strings.HasPrefix(p.Path, parent+string(filepath.Separator)) {
			return false
		}
	}
	if e.dryRun {
		return true
	}
	removed, err := fileutil.RemoveDirIfEmpty(parent, e.root)
	if err != nil {
		e.logger.Warn("could not clean up empty directory",
			logging.String(logging.FieldPath, parent),
			logging.Error(err))
		return false
	}
	return removed > 0
}

// resolveConflicts renumbers every placement in a conflict group except the
// one with the earliest parent-directory modification time, whose claim to
// the number stands.
func (e *Engine) resolveConflicts(logger *slog.Logger, view []*Placement, conflicts []Conflict, rec *metrics.RepairMetrics, success *bool) int {
	changes := 0
	for _, conflict := range conflicts {
		if !e.countedConflicts[conflict.Key] {
			e.countedConflicts[conflict.Key] = true
			rec.ConflictsFound++
		}

		members := append([]*Placement(nil), conflict.Placements...)
		sort.Slice(members, func(i, j int) bool {
			if !members[i].ParentMod.Equal(members[j].ParentMod) {
				return members[i].ParentMod.Before(members[j].ParentMod)
			}
			return members[i].Path < members[j].Path
		})

		logger.Info("resolving episode conflict",
			logging.String(logging.FieldActivity, conflict.Key.Activity.Name()),
			logging.Int(logging.FieldSeason, conflict.Key.Season),
			logging.Int(logging.FieldEpisode, conflict.Key.Episode),
			logging.Int("placements", len(members)))

		resolved := true
		highest := maxEpisode(view, conflict.Key.Activity, conflict.Key.Season)
		for _, loser := range members[1:] {
			highest++
			if err := e.renumber(logger, loser, highest); err != nil {
				logger.Error("failed to renumber episode",
					logging.String(logging.FieldPath, loser.Path),
					logging.Error(err))
				e.failed[loser.Path] = true
				rec.ConflictsFailed++
				*success = false
				resolved = false
				continue
			}
			changes++
		}
		if resolved {
			rec.ConflictsResolved++
		}
	}
	return changes
}

// renumber renames the leaf directory, and any files inside whose names
// carry the old folder name, to the new episode number.
func (e *Engine) renumber(logger *slog.Logger, p *Placement, episode int) error {
	oldBase := filepath.Base(p.Path)
	newBase := library.RenumberFolder(oldBase, episode)
	newPath := filepath.Join(filepath.Dir(p.Path), newBase)

	logger.Info("renumbering episode",
		logging.String(logging.FieldPath, p.Path),
		logging.String("new_name", newBase))

	if !e.dryRun {
		if _, err := os.Stat(newPath); err == nil {
			return fmt.Errorf("target already exists: %s", newPath)
		}
		if err := os.Rename(p.Path, newPath); err != nil {
			return err
		}
		if err := renameInnerFiles(newPath, oldBase, newBase); err != nil {
			logger.Warn("renamed folder but could not rename contents",
				logging.String(logging.FieldPath, newPath),
				logging.Error(err))
		}
	}

	p.Path = newPath
	p.Episode = episode
	return nil
}

// renameInnerFiles renames descriptor and media files that repeat the old
// folder name, e.g. "S20E002 - Ride.info.json" after the folder became
// S20E003.
func renameInnerFiles(dir, oldBase, newBase string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, oldBase) {
			continue
		}
		renamed := newBase + strings.TrimPrefix(name, oldBase)
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, renamed)); err != nil {
			return err
		}
	}
	return nil
}
