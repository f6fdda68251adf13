package metrics_test

import (
	"errors"
	"strings"
	"testing"

	"subtidy/internal/metrics"
)

func TestNewRunDefaults(t *testing.T) {
	run := metrics.NewRun()
	if run.RunID == "" {
		t.Fatal("run ID not assigned")
	}
	if !run.Success {
		t.Fatal("new run should start successful")
	}
	if run.Finalized() {
		t.Fatal("new run should not be finalized")
	}
}

func TestFinalize(t *testing.T) {
	run := metrics.NewRun()
	run.Finalize(errors.New("repair failed"))
	if run.Success {
		t.Fatal("failed run still reports success")
	}
	if run.ErrorMessage != "repair failed" {
		t.Fatalf("error message = %q", run.ErrorMessage)
	}
	if run.EndTime.IsZero() {
		t.Fatal("end time not set")
	}

	// Second finalize must not overwrite the sealed record.
	end := run.EndTime
	run.Finalize(nil)
	if !run.EndTime.Equal(end) {
		t.Fatal("finalize ran twice")
	}
	if run.Success {
		t.Fatal("second finalize flipped the outcome")
	}
}

func TestRepairSummary(t *testing.T) {
	m := metrics.RepairMetrics{}
	if got := m.Summary(); got != "No episodes found to validate" {
		t.Fatalf("empty summary = %q", got)
	}

	m = metrics.RepairMetrics{EpisodesScanned: 42}
	if got := m.Summary(); !strings.Contains(got, "no repairs needed") {
		t.Fatalf("clean summary = %q", got)
	}

	m = metrics.RepairMetrics{
		EpisodesScanned:   42,
		CorruptedRepaired: 2,
		ConflictsResolved: 1,
		CorruptedFailed:   1,
		PassesExecuted:    2,
	}
	got := m.Summary()
	for _, want := range []string{"42 episodes", "2 corrupted locations repaired", "1 episode conflicts resolved", "1 FAILED", "2 passes"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary %q missing %q", got, want)
		}
	}
}

func TestLibrarySummaryDeltas(t *testing.T) {
	m := metrics.LibraryMetrics{TotalActivities: 3, EpisodesOnDisk: 100, PreviousOnDisk: 90}
	if got := m.Summary(); !strings.Contains(got, "(+10 since last run)") {
		t.Fatalf("summary = %q", got)
	}
	m.PreviousOnDisk = 0
	if got := m.Summary(); !strings.Contains(got, "(+0)") {
		t.Fatalf("first-run summary = %q", got)
	}
	m.PreviousOnDisk = 100
	if got := m.Summary(); !strings.Contains(got, "(no change)") {
		t.Fatalf("unchanged summary = %q", got)
	}
}

func TestSnapshot(t *testing.T) {
	run := metrics.NewRun()
	run.Library.EpisodesOnDisk = 200
	run.Library.EpisodesInManifest = 10
	run.Library.TotalActivities = 4
	run.Library.EpisodesByActivity = map[string]int{"cycling": 150, "yoga": 50}
	run.Scrape.ClassesAdded = 5

	snap := run.Snapshot()
	if snap.VideosOnDisk != 200 {
		t.Fatalf("videos on disk = %d", snap.VideosOnDisk)
	}
	if snap.VideosInSubscriptions != 15 {
		t.Fatalf("videos in subscriptions = %d, want manifest + added", snap.VideosInSubscriptions)
	}
	if snap.NewVideosAdded != 5 || snap.TotalActivities != 4 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.EpisodesByActivity["cycling"] != 150 {
		t.Fatalf("episodes by activity = %v", snap.EpisodesByActivity)
	}

	// The snapshot holds its own copy of the per-activity map.
	run.Library.EpisodesByActivity["cycling"] = 0
	if snap.EpisodesByActivity["cycling"] != 150 {
		t.Fatal("snapshot shares state with the live record")
	}
}

func TestApplyPrevious(t *testing.T) {
	run := metrics.NewRun()
	run.ApplyPrevious(nil)
	if run.Library.PreviousOnDisk != 0 {
		t.Fatal("nil previous should be a no-op")
	}
	run.ApplyPrevious(&metrics.Snapshot{VideosOnDisk: 90, VideosInSubscriptions: 12})
	if run.Library.PreviousOnDisk != 90 || run.Library.PreviousInManifest != 12 {
		t.Fatalf("previous not applied: %+v", run.Library)
	}
}

func TestRunSummaryIncludesAllStages(t *testing.T) {
	run := metrics.NewRun()
	run.Repair.EpisodesScanned = 10
	run.Library.TotalActivities = 2
	got := run.Summary()
	for _, section := range []string{"Directory Repair:", "Existing Episodes:", "Web Scraping:", "Subscription Changes:", "Subscription History:"} {
		if !strings.Contains(got, section) {
			t.Fatalf("summary missing section %q", section)
		}
	}
	run.Finalize(errors.New("boom"))
	if got := run.Summary(); !strings.Contains(got, "ERROR: boom") {
		t.Fatalf("failed summary missing error: %q", got)
	}
}
