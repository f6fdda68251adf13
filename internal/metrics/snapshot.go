package metrics

// Snapshot is the slimmed-down record of one run kept in the subscription
// history file. Field names are part of the on-disk format.
type Snapshot struct {
	RunTimestamp          string         `json:"run_timestamp"`
	VideosOnDisk          int            `json:"videos_on_disk"`
	VideosInSubscriptions int            `json:"videos_in_subscriptions"`
	NewVideosAdded        int            `json:"new_videos_added"`
	TotalActivities       int            `json:"total_activities"`
	EpisodesByActivity    map[string]int `json:"episodes_by_activity"`
}

// Snapshot derives the history snapshot from the current counters.
func (m *RunMetrics) Snapshot() Snapshot {
	byActivity := make(map[string]int, len(m.Library.EpisodesByActivity))
	for name, count := range m.Library.EpisodesByActivity {
		byActivity[name] = count
	}
	return Snapshot{
		RunTimestamp:          m.StartTime.Format("2006-01-02T15:04:05Z07:00"),
		VideosOnDisk:          m.Library.EpisodesOnDisk,
		VideosInSubscriptions: m.Library.EpisodesInManifest + m.Scrape.ClassesAdded,
		NewVideosAdded:        m.Scrape.ClassesAdded,
		TotalActivities:       m.Library.TotalActivities,
		EpisodesByActivity:    byActivity,
	}
}

// ApplyPrevious seeds the previous-run comparison fields from the last
// persisted snapshot, if any.
func (m *RunMetrics) ApplyPrevious(previous *Snapshot) {
	if previous == nil {
		return
	}
	m.Library.PreviousOnDisk = previous.VideosOnDisk
	m.Library.PreviousInManifest = previous.VideosInSubscriptions
}
