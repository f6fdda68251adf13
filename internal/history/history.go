// Package history persists subscription tracking data between runs: which
// class IDs the manifest has carried and since when, plus a capped log of
// run snapshots for delta reporting.
package history

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"subtidy/internal/logging"
	"subtidy/internal/metrics"
	"subtidy/internal/services"
)

// maxRunHistory caps the persisted snapshot log at the most recent entries.
const maxRunHistory = 50

// Entry records when a class ID first appeared in the manifest.
type Entry struct {
	ID        string `json:"id"`
	DateAdded string `json:"date_added"`
}

type fileFormat struct {
	Subscriptions []Entry            `json:"subscriptions"`
	RunHistory    []metrics.Snapshot `json:"run_history"`
	LastUpdated   string             `json:"last_updated"`
}

// Store reads and writes the subscription-history file. The file is created
// on first access if absent.
type Store struct {
	path        string
	purgeDays   int
	warningDays int
	logger      *slog.Logger
	now         func() time.Time
}

// NewStore builds a history store. purgeDays is the age at which a tracked
// subscription counts as stale; warningDays is how close to that limit an
// entry may get before it is flagged in metrics.
func NewStore(path string, purgeDays, warningDays int, logger *slog.Logger) *Store {
	return &Store{
		path:        path,
		purgeDays:   purgeDays,
		warningDays: warningDays,
		logger:      logging.WithComponent(logger, "history"),
		now:         time.Now,
	}
}

func (s *Store) load() (*fileFormat, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("history file does not exist, creating",
			logging.String(logging.FieldPath, s.path))
		empty := &fileFormat{}
		if err := s.save(empty); err != nil {
			return nil, err
		}
		return empty, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrFatal, "history", "load", "read history file", err)
	}

	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		s.logger.Error("history file is corrupt, starting fresh",
			logging.String(logging.FieldPath, s.path),
			logging.Error(err))
		return &fileFormat{}, nil
	}
	return &file, nil
}

func (s *Store) save(file *fileFormat) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return services.Wrap(services.ErrFatal, "history", "save", "create history directory", err)
	}
	file.LastUpdated = s.now().UTC().Format(time.RFC3339)
	if file.Subscriptions == nil {
		file.Subscriptions = []Entry{}
	}
	if file.RunHistory == nil {
		file.RunHistory = []metrics.Snapshot{}
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrFatal, "history", "save", "encode history", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrFatal, "history", "save", "write history file", err)
	}
	return nil
}

// TrackedIDs returns every class ID currently in the history.
func (s *Store) TrackedIDs() (map[string]struct{}, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(file.Subscriptions))
	for _, entry := range file.Subscriptions {
		ids[entry.ID] = struct{}{}
	}
	return ids, nil
}

// StaleIDs returns the tracked IDs whose date-added is older than the purge
// limit. Entries with unparsable dates count as stale.
func (s *Store) StaleIDs() (map[string]struct{}, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	cutoff := s.now().AddDate(0, 0, -s.purgeDays)
	stale := make(map[string]struct{})
	for _, entry := range file.Subscriptions {
		added, err := time.Parse(time.RFC3339, entry.DateAdded)
		if err != nil {
			s.logger.Warn("invalid date in history entry, treating as stale",
				logging.String("class_id", entry.ID),
				logging.String("value", entry.DateAdded))
			stale[entry.ID] = struct{}{}
			continue
		}
		if added.Before(cutoff) {
			stale[entry.ID] = struct{}{}
		}
	}
	return stale, nil
}

// NearPurgeCount reports how many tracked entries are within the warning
// window of the purge limit but not yet stale.
func (s *Store) NearPurgeCount() (int, error) {
	file, err := s.load()
	if err != nil {
		return 0, err
	}
	now := s.now()
	purgeCutoff := now.AddDate(0, 0, -s.purgeDays)
	warnCutoff := now.AddDate(0, 0, -(s.purgeDays - s.warningDays))
	near := 0
	for _, entry := range file.Subscriptions {
		added, err := time.Parse(time.RFC3339, entry.DateAdded)
		if err != nil {
			continue
		}
		if added.Before(warnCutoff) && !added.Before(purgeCutoff) {
			near++
		}
	}
	return near, nil
}

// Sync reconciles the history with the set of IDs currently in the
// manifest: new IDs are recorded with today's date, IDs that left the
// manifest are dropped. Returns the number added and removed.
func (s *Store) Sync(current map[string]struct{}) (int, int, error) {
	file, err := s.load()
	if err != nil {
		return 0, 0, err
	}

	kept := make([]Entry, 0, len(file.Subscriptions))
	known := make(map[string]struct{}, len(file.Subscriptions))
	removed := 0
	for _, entry := range file.Subscriptions {
		if _, ok := current[entry.ID]; !ok {
			removed++
			continue
		}
		kept = append(kept, entry)
		known[entry.ID] = struct{}{}
	}

	added := 0
	today := s.now().UTC().Format(time.RFC3339)
	for id := range current {
		if _, ok := known[id]; ok {
			continue
		}
		kept = append(kept, Entry{ID: id, DateAdded: today})
		added++
	}

	if added == 0 && removed == 0 {
		s.logger.Info("history already in sync",
			logging.Int("tracked", len(kept)))
		return 0, 0, nil
	}

	file.Subscriptions = kept
	if err := s.save(file); err != nil {
		return added, removed, err
	}
	s.logger.Info("synced subscription history",
		logging.Int("added", added),
		logging.Int("removed", removed),
		logging.Int("tracked", len(kept)))
	return added, removed, nil
}

// AppendSnapshot adds a finalized run snapshot to the log, keeping only the
// most recent entries.
func (s *Store) AppendSnapshot(snap metrics.Snapshot) error {
	file, err := s.load()
	if err != nil {
		return err
	}
	file.RunHistory = append(file.RunHistory, snap)
	if len(file.RunHistory) > maxRunHistory {
		file.RunHistory = file.RunHistory[len(file.RunHistory)-maxRunHistory:]
	}
	return s.save(file)
}

// LatestSnapshot returns the most recent run snapshot, or nil if none has
// been recorded.
func (s *Store) LatestSnapshot() (*metrics.Snapshot, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(file.RunHistory) == 0 {
		return nil, nil
	}
	snap := file.RunHistory[len(file.RunHistory)-1]
	return &snap, nil
}

// Snapshots returns every persisted run snapshot, oldest first.
func (s *Store) Snapshots() ([]metrics.Snapshot, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]metrics.Snapshot, len(file.RunHistory))
	copy(out, file.RunHistory)
	return out, nil
}

// SnapshotCount returns the number of persisted run snapshots.
func (s *Store) SnapshotCount() (int, error) {
	file, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(file.RunHistory), nil
}

// WithClock overrides the store's time source; intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}
