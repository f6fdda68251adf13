package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"subtidy/internal/activity"
	"subtidy/internal/logging"
)

// Scanner reads episode observations out of the media tree.
type Scanner struct {
	root     string
	detector *activity.Detector
	logger   *slog.Logger
}

// NewScanner constructs a scanner over the given media root.
func NewScanner(root string, detector *activity.Detector, logger *slog.Logger) *Scanner {
	if detector == nil {
		detector = activity.NewDetector(nil)
	}
	return &Scanner{
		root:     root,
		detector: detector,
		logger:   logging.WithComponent(logger, "library"),
	}
}

// Ledger walks the media tree and builds the per-activity episode ledger.
// A missing root is a valid empty library, not an error. Folders under a
// known corruption pattern are excluded from the ledger: they are repair
// material, not valid numbering observations.
func (s *Scanner) Ledger(ctx context.Context) (activity.Set, error) {
	set := make(activity.Set)

	if _, err := os.Stat(s.root); errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("media directory does not exist", logging.String(logging.FieldPath, s.root))
		return set, nil
	}

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("scanning filesystem", logging.String(logging.FieldPath, s.root))

	leaves, err := LeafDirs(s.root)
	if err != nil {
		return nil, fmt.Errorf("walk media tree: %w", err)
	}

	for _, dir := range leaves {
		info, ok := ParseFolder(filepath.Base(dir))
		if !ok {
			continue
		}

		segment, ok := activitySegment(dir)
		if !ok {
			logger.Warn("path too short to carry an activity", logging.String(logging.FieldPath, dir))
			continue
		}

		act, ok := activity.Parse(segment)
		if !ok {
			if s.detector.IsCorrupted(segment) {
				// Corrupted-location content is handled by the repair
				// engine, never counted here.
				logger.Warn("skipping corrupted-location folder",
					logging.String("name", segment),
					logging.String(logging.FieldPath, dir))
				continue
			}
			logger.Error("activity name does not map to a known activity",
				logging.String("name", segment),
				logging.String(logging.FieldPath, dir))
			continue
		}

		set.Update(act, info.Season, info.Episode)
	}

	logger.Info("filesystem scan complete",
		logging.Int("activities", len(set)),
		logging.Int("episodes", set.TotalCount()))
	return set, nil
}

// ClassIDs collects the stable identifier from every descriptor file in the
// tree. Unreadable descriptors are logged and skipped.
func (s *Scanner) ClassIDs(ctx context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{})

	if _, err := os.Stat(s.root); errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("media directory does not exist", logging.String(logging.FieldPath, s.root))
		return ids, nil
	}

	logger := logging.WithContext(ctx, s.logger)

	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".info.json") {
			return nil
		}
		id, readErr := readClassID(path)
		if readErr != nil {
			logger.Warn("could not read class ID from descriptor",
				logging.String(logging.FieldPath, path),
				logging.Error(readErr))
			return nil
		}
		if id != "" {
			ids[id] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan descriptors: %w", err)
	}

	logger.Info("descriptor scan complete", logging.Int("class_ids", len(ids)))
	return ids, nil
}

// activitySegment returns the path component three levels above the leaf:
// .../{Activity}/{Instructor}/{Episode-folder}.
func activitySegment(dir string) (string, bool) {
	instructorDir := filepath.Dir(dir)
	activityDir := filepath.Dir(instructorDir)
	if activityDir == instructorDir || activityDir == "." {
		return "", false
	}
	segment := filepath.Base(activityDir)
	if segment == string(filepath.Separator) || segment == "." {
		return "", false
	}
	return segment, true
}

func readClassID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var descriptor struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return "", err
	}
	return descriptor.ID, nil
}
