package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RepairMetrics counts directory validator activity.
type RepairMetrics struct {
	EpisodesScanned   int `json:"total_episodes_scanned"`
	CorruptedFound    int `json:"corrupted_locations_found"`
	CorruptedRepaired int `json:"corrupted_locations_repaired"`
	CorruptedFailed   int `json:"corrupted_locations_failed"`
	ParentsRemoved    int `json:"parent_directories_repaired"`
	ConflictsFound    int `json:"episode_conflicts_found"`
	ConflictsResolved int `json:"episode_conflicts_resolved"`
	ConflictsFailed   int `json:"episode_conflicts_failed"`
	PassesExecuted    int `json:"repair_passes_executed"`
}

// Summary renders a one-line human-readable account of the repair stage.
func (m *RepairMetrics) Summary() string {
	if m.EpisodesScanned == 0 {
		return "No episodes found to validate"
	}
	repairs := m.CorruptedRepaired + m.ParentsRemoved + m.ConflictsResolved
	if repairs == 0 && m.CorruptedFailed == 0 && m.ConflictsFailed == 0 {
		return fmt.Sprintf("Validated %d episodes - no repairs needed", m.EpisodesScanned)
	}
	parts := []string{fmt.Sprintf("Validated %d episodes", m.EpisodesScanned)}
	if m.CorruptedRepaired > 0 {
		parts = append(parts, fmt.Sprintf("%d corrupted locations repaired", m.CorruptedRepaired))
	}
	if m.CorruptedFailed > 0 {
		parts = append(parts, fmt.Sprintf("%d FAILED to repair", m.CorruptedFailed))
	}
	if m.ParentsRemoved > 0 {
		parts = append(parts, fmt.Sprintf("%d parent directories cleaned up", m.ParentsRemoved))
	}
	if m.ConflictsResolved > 0 {
		parts = append(parts, fmt.Sprintf("%d episode conflicts resolved", m.ConflictsResolved))
	}
	if m.ConflictsFailed > 0 {
		parts = append(parts, fmt.Sprintf("%d conflicts unresolved", m.ConflictsFailed))
	}
	if m.PassesExecuted > 1 {
		parts = append(parts, fmt.Sprintf("%d passes", m.PassesExecuted))
	}
	return strings.Join(parts, " - ")
}

// LibraryMetrics describes the merged episode inventory for this run.
type LibraryMetrics struct {
	TotalActivities      int            `json:"total_activities"`
	EpisodesOnDisk       int            `json:"total_episodes_on_disk"`
	PreviousOnDisk       int            `json:"total_episodes_on_disk_previous"`
	EpisodesInManifest   int            `json:"total_subscriptions_in_yaml"`
	PreviousInManifest   int            `json:"total_subscriptions_in_yaml_previous"`
	ManifestAfterCleanup int            `json:"total_subscriptions_after_cleanup"`
	ClassIDs             int            `json:"existing_class_ids_count"`
	EpisodesByActivity   map[string]int `json:"episodes_by_activity,omitempty"`
}

func deltaText(current, previous int) string {
	if previous == 0 {
		return "(+0)"
	}
	switch delta := current - previous; {
	case delta > 0:
		return fmt.Sprintf("(+%d since last run)", delta)
	case delta < 0:
		return fmt.Sprintf("(%d since last run)", delta)
	default:
		return "(no change)"
	}
}

// Summary renders the inventory including deltas against the previous run.
func (m *LibraryMetrics) Summary() string {
	parts := []string{
		fmt.Sprintf("Found %d activities", m.TotalActivities),
		fmt.Sprintf("%d episodes on disk %s", m.EpisodesOnDisk, deltaText(m.EpisodesOnDisk, m.PreviousOnDisk)),
		fmt.Sprintf("%d subscriptions in manifest %s", m.EpisodesInManifest, deltaText(m.EpisodesInManifest, m.PreviousInManifest)),
		fmt.Sprintf("%d unique class IDs", m.ClassIDs),
	}
	return strings.Join(parts, " - ")
}

// ScrapeMetrics counts the write-back stage that feeds new classes into the
// manifest.
type ScrapeMetrics struct {
	ActivitiesScraped int `json:"total_activities_scraped"`
	ClassesFound      int `json:"total_classes_found"`
	ClassesSkipped    int `json:"total_classes_skipped"`
	ClassesAdded      int `json:"total_classes_added"`
	Errors            int `json:"total_errors"`
	PageScrolls       int `json:"page_scrolls_config"`
	ClassLimit        int `json:"class_limit_per_activity"`
}

func (m *ScrapeMetrics) Summary() string {
	if m.ActivitiesScraped == 0 {
		return "No activities scraped"
	}
	parts := []string{
		fmt.Sprintf("Scraped %d activities", m.ActivitiesScraped),
		fmt.Sprintf("%d classes found", m.ClassesFound),
		fmt.Sprintf("%d skipped", m.ClassesSkipped),
		fmt.Sprintf("%d added", m.ClassesAdded),
	}
	if m.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", m.Errors))
	}
	return strings.Join(parts, " - ")
}

// ManifestMetrics counts mutations applied to the subscription manifest.
type ManifestMetrics struct {
	RemovedDownloaded int `json:"subscriptions_removed_already_downloaded"`
	RemovedStale      int `json:"subscriptions_removed_stale"`
	Added             int `json:"subscriptions_added_new"`
	BeforeCleanup     int `json:"subscriptions_before_cleanup"`
	AfterCleanup      int `json:"subscriptions_after_cleanup"`
}

func (m *ManifestMetrics) Summary() string {
	var parts []string
	if m.BeforeCleanup > 0 {
		parts = append(parts, fmt.Sprintf("File started with %d subscriptions", m.BeforeCleanup))
	}
	if m.RemovedDownloaded > 0 {
		parts = append(parts, fmt.Sprintf("Removed %d because they were found on disk", m.RemovedDownloaded))
	}
	if m.RemovedStale > 0 {
		parts = append(parts, fmt.Sprintf("Removed %d because they expired", m.RemovedStale))
	}
	if m.Added > 0 {
		parts = append(parts, fmt.Sprintf("%d new added", m.Added))
	}
	if m.AfterCleanup > 0 {
		parts = append(parts, fmt.Sprintf("%d subscriptions remain", m.AfterCleanup))
	}
	if len(parts) == 0 {
		return "No changes to subscriptions"
	}
	return strings.Join(parts, " - ")
}

// HistoryMetrics counts subscription-history bookkeeping.
type HistoryMetrics struct {
	Tracked     int  `json:"total_tracked_subscriptions"`
	Added       int  `json:"subscriptions_added_to_history"`
	Removed     int  `json:"subscriptions_removed_from_history"`
	StaleFound  int  `json:"stale_subscriptions_found"`
	NearPurge   int  `json:"subscriptions_near_purge_limit"`
	PurgeDays   int  `json:"purge_limit_days"`
	WarningDays int  `json:"warning_threshold_days"`
	Synced      bool `json:"history_synced"`
}

func (m *HistoryMetrics) Summary() string {
	parts := []string{fmt.Sprintf("Tracking %d subscriptions", m.Tracked)}
	if m.Added > 0 {
		parts = append(parts, fmt.Sprintf("%d added", m.Added))
	}
	if m.Removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", m.Removed))
	}
	if m.StaleFound > 0 {
		parts = append(parts, fmt.Sprintf("%d stale (>%d days)", m.StaleFound, m.PurgeDays))
	}
	if m.NearPurge > 0 {
		parts = append(parts, fmt.Sprintf("%d within %d days of purge", m.NearPurge, m.WarningDays))
	}
	return strings.Join(parts, " - ")
}

// RunMetrics is the complete record for one run. Stages write to their own
// sub-struct as the run progresses; Finalize seals the record.
type RunMetrics struct {
	RunID        string    `json:"run_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time,omitzero"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`

	Repair   RepairMetrics   `json:"directory_repair"`
	Library  LibraryMetrics  `json:"existing_episodes"`
	Scrape   ScrapeMetrics   `json:"web_scraping"`
	Manifest ManifestMetrics `json:"subscription_changes"`
	History  HistoryMetrics  `json:"subscription_history"`

	finalized bool
}

// NewRun starts a fresh metrics record with a unique run identifier.
func NewRun() *RunMetrics {
	return &RunMetrics{
		RunID:     uuid.NewString(),
		StartTime: time.Now().UTC(),
		Success:   true,
	}
}

// Finalize seals the record with an end timestamp and overall outcome.
// Calling it again has no effect.
func (m *RunMetrics) Finalize(runErr error) {
	if m.finalized {
		return
	}
	m.EndTime = time.Now().UTC()
	if runErr != nil {
		m.Success = false
		m.ErrorMessage = runErr.Error()
	}
	m.finalized = true
}

// Finalized reports whether the record has been sealed.
func (m *RunMetrics) Finalized() bool { return m.finalized }

// Summary renders the full end-of-run report.
func (m *RunMetrics) Summary() string {
	divider := strings.Repeat("=", 60)
	lines := []string{
		fmt.Sprintf("Run Summary (%s)", m.RunID),
		divider,
		"",
		"Directory Repair:",
		"  " + m.Repair.Summary(),
		"",
		"Existing Episodes:",
		"  " + m.Library.Summary(),
		"",
		"Web Scraping:",
		"  " + m.Scrape.Summary(),
		"",
		"Subscription Changes:",
		"  " + m.Manifest.Summary(),
		"",
		"Subscription History:",
		"  " + m.History.Summary(),
		"",
		divider,
	}
	if !m.Success && m.ErrorMessage != "" {
		lines = append(lines, "", "ERROR: "+m.ErrorMessage)
	}
	return strings.Join(lines, "\n")
}

// DetailedBreakdown renders per-activity episode counts.
func (m *RunMetrics) DetailedBreakdown() string {
	if len(m.Library.EpisodesByActivity) == 0 {
		return "No activity data available"
	}
	names := make([]string, 0, len(m.Library.EpisodesByActivity))
	for name := range m.Library.EpisodesByActivity {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := []string{"Episode Breakdown:"}
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s: %d episodes", name, m.Library.EpisodesByActivity[name]))
	}
	return strings.Join(lines, "\n")
}
