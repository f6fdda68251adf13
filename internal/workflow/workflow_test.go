package workflow_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"subtidy/internal/activity"
	"subtidy/internal/config"
	"subtidy/internal/history"
	"subtidy/internal/logging"
	"subtidy/internal/scraper"
	"subtidy/internal/services"
	"subtidy/internal/subscriptions"
	"subtidy/internal/testsupport"
	"subtidy/internal/workflow"
)

const sampleManifest = `Plex TV Show by Date:
  = Cycling (20 min):
    Ride with Hannah Corbin:
      download: https://members.onepeloton.com/classes/player/aaa111
      overrides:
        tv_show_directory: /media/peloton/Cycling/Hannah Corbin
        season_number: 20
        episode_number: 1
    Climb with Ben Alldis:
      download: https://members.onepeloton.com/classes/player/bbb222
      overrides:
        tv_show_directory: /media/peloton/Cycling/Ben Alldis
        season_number: 20
        episode_number: 2
`

type fakeSession struct{}

func (fakeSession) Close() error { return nil }

type fakeSessions struct{}

func (fakeSessions) Open(_ context.Context, _ scraper.Credentials) (scraper.Session, error) {
	return fakeSession{}, nil
}

type fakeLogin struct{}

func (fakeLogin) Login(_ context.Context, _ scraper.Session, _ scraper.Credentials) error {
	return nil
}

type fakeScraper struct {
	records []scraper.ListingRecord
}

func (fakeScraper) Name() string { return "fake" }

func (f fakeScraper) Scrape(_ context.Context, _ scraper.Session, req scraper.Request) (scraper.Result, error) {
	result := scraper.Result{Activity: req.Activity}
	for _, record := range f.records {
		if record.Activity != req.Activity {
			continue
		}
		result.Found++
		if _, known := req.KnownIDs[record.ClassID]; known {
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

func registerFake(t *testing.T, records ...scraper.ListingRecord) string {
	t.Helper()
	name := "fake-" + t.Name()
	scraper.Register(name, func(*slog.Logger) (scraper.Strategy, error) {
		return scraper.Strategy{
			Sessions: fakeSessions{},
			Login:    fakeLogin{},
			Scraper:  fakeScraper{records: records},
		}, nil
	})
	return name
}

func seedLibrary(t *testing.T, cfg *config.Config) {
	t.Helper()
	episode := testsupport.WriteEpisode(t, cfg.Paths.MediaDir, "Cycling", "Hannah Corbin", "S20E001 - Ride")
	testsupport.WriteInfoJSON(t, episode, "aaa111")
	testsupport.WriteFile(t, cfg.Paths.SubscriptionsFile, sampleManifest)
}

func TestRunSyncsManifestAndHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithActivities("cycling"))
	seedLibrary(t, cfg)
	cfg.Scraper.Strategy = registerFake(t, scraper.ListingRecord{
		ClassID:         "ccc333",
		Title:           "Sprint Ride",
		Instructor:      "Leanne Hainsby",
		Activity:        activity.Cycling,
		DurationMinutes: 20,
		PlayerURL:       "https://members.onepeloton.com/classes/player/ccc333",
	})

	sync := workflow.NewSync(cfg, logging.NewNop())
	rec, err := sync.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rec.Success {
		t.Fatalf("run reported failure: %s", rec.ErrorMessage)
	}
	if !rec.Finalized() {
		t.Fatal("expected record to be finalized")
	}

	if rec.Library.EpisodesOnDisk != 1 {
		t.Errorf("EpisodesOnDisk = %d, want 1", rec.Library.EpisodesOnDisk)
	}
	if rec.Library.EpisodesInManifest != 2 {
		t.Errorf("EpisodesInManifest = %d, want 2", rec.Library.EpisodesInManifest)
	}
	if rec.Manifest.RemovedDownloaded != 1 {
		t.Errorf("RemovedDownloaded = %d, want 1", rec.Manifest.RemovedDownloaded)
	}
	if rec.Scrape.ClassesAdded != 1 || rec.Manifest.Added != 1 {
		t.Errorf("added: scrape=%d manifest=%d, want 1/1", rec.Scrape.ClassesAdded, rec.Manifest.Added)
	}

	doc, err := subscriptions.Load(cfg.Paths.SubscriptionsFile, logging.NewNop())
	if err != nil {
		t.Fatalf("reload manifest: %v", err)
	}
	ids := doc.ClassIDs()
	if _, ok := ids["aaa111"]; ok {
		t.Error("downloaded class aaa111 still present in manifest")
	}
	if _, ok := ids["bbb222"]; !ok {
		t.Error("pending class bbb222 missing from manifest")
	}
	if _, ok := ids["ccc333"]; !ok {
		t.Error("scraped class ccc333 missing from manifest")
	}

	// Disk max is 1 and the surviving manifest claim is 2, so the new class
	// must land on episode 3.
	ledger := doc.Ledger()
	if got := ledger[activity.Cycling].MaxEpisode(20); got != 3 {
		t.Errorf("cycling season 20 max episode = %d, want 3", got)
	}

	store := history.NewStore(cfg.HistoryFile(), cfg.History.PurgeDays, cfg.History.WarningDays, logging.NewNop())
	tracked, err := store.TrackedIDs()
	if err != nil {
		t.Fatalf("TrackedIDs: %v", err)
	}
	if len(tracked) != 2 {
		t.Errorf("tracked = %d ids, want 2", len(tracked))
	}
	snap, err := store.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a recorded snapshot")
	}
	if snap.RunTimestamp != rec.StartTime.Format(time.RFC3339) {
		t.Errorf("snapshot timestamp = %q, want %q", snap.RunTimestamp, rec.StartTime.Format(time.RFC3339))
	}
}

func TestRunDryRunLeavesFilesUntouched(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedLibrary(t, cfg)
	cfg.Scraper.Strategy = registerFake(t, scraper.ListingRecord{
		ClassID:         "ccc333",
		Title:           "Sprint Ride",
		Instructor:      "Leanne Hainsby",
		Activity:        activity.Cycling,
		DurationMinutes: 20,
		PlayerURL:       "https://members.onepeloton.com/classes/player/ccc333",
	})

	before, err := os.ReadFile(cfg.Paths.SubscriptionsFile)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}

	sync := workflow.NewSync(cfg, logging.NewNop(), workflow.WithDryRun(true))
	rec, err := sync.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rec.Manifest.RemovedDownloaded != 1 {
		t.Errorf("RemovedDownloaded = %d, want 1", rec.Manifest.RemovedDownloaded)
	}
	if rec.Scrape.ClassesAdded != 1 {
		t.Errorf("ClassesAdded = %d, want 1", rec.Scrape.ClassesAdded)
	}

	after, err := os.ReadFile(cfg.Paths.SubscriptionsFile)
	if err != nil {
		t.Fatalf("reread manifest: %v", err)
	}
	if string(before) != string(after) {
		t.Error("dry run modified the manifest file")
	}

	store := history.NewStore(cfg.HistoryFile(), cfg.History.PurgeDays, cfg.History.WarningDays, logging.NewNop())
	count, err := store.SnapshotCount()
	if err != nil {
		t.Fatalf("SnapshotCount: %v", err)
	}
	if count != 0 {
		t.Errorf("dry run recorded %d snapshots, want 0", count)
	}
}

func TestRunDryRunMatchesLivePruneCounts(t *testing.T) {
	// aaa111 is downloaded and stale at once; bbb222 is only stale. The
	// live path removes aaa111 on the downloaded pass, so the stale count
	// must not include it in either mode.
	staleHistory := `{"subscriptions":[` +
		`{"id":"aaa111","date_added":"2020-01-01T00:00:00Z"},` +
		`{"id":"bbb222","date_added":"2020-01-01T00:00:00Z"}],` +
		`"run_history":[]}`

	prune := func(t *testing.T, dry bool) (int, int) {
		cfg := testsupport.NewConfig(t)
		seedLibrary(t, cfg)
		cfg.Scraper.Strategy = registerFake(t)
		testsupport.WriteFile(t, cfg.HistoryFile(), staleHistory)

		sync := workflow.NewSync(cfg, logging.NewNop(), workflow.WithDryRun(dry))
		rec, err := sync.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return rec.Manifest.RemovedDownloaded, rec.Manifest.RemovedStale
	}

	dryDownloaded, dryStale := prune(t, true)
	liveDownloaded, liveStale := prune(t, false)

	if dryDownloaded != liveDownloaded {
		t.Errorf("RemovedDownloaded: dry %d, live %d", dryDownloaded, liveDownloaded)
	}
	if dryStale != liveStale {
		t.Errorf("RemovedStale: dry %d, live %d", dryStale, liveStale)
	}
	if dryDownloaded != 1 || dryStale != 1 {
		t.Errorf("prune counts = (%d, %d), want (1, 1)", dryDownloaded, dryStale)
	}
}

func TestRunRefusesConcurrentLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedLibrary(t, cfg)
	cfg.Scraper.Strategy = registerFake(t)

	holder := flock.New(cfg.Paths.LockFile)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("seed lock: locked=%v err=%v", locked, err)
	}
	defer holder.Unlock()

	sync := workflow.NewSync(cfg, logging.NewNop())
	rec, err := sync.Run(context.Background())
	if err == nil {
		t.Fatal("expected lock contention error")
	}
	if !services.IsFatal(err) {
		t.Errorf("lock contention should be fatal, got %v", err)
	}
	if rec.Success {
		t.Error("record should not report success")
	}
}

func TestRunUnknownStrategySkipsScrape(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStrategy("nonexistent-strategy"))
	seedLibrary(t, cfg)

	sync := workflow.NewSync(cfg, logging.NewNop())
	rec, err := sync.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rec.Success {
		t.Fatalf("run reported failure: %s", rec.ErrorMessage)
	}
	if rec.Scrape.ActivitiesScraped != 0 {
		t.Errorf("ActivitiesScraped = %d, want 0", rec.Scrape.ActivitiesScraped)
	}
	if rec.Manifest.Added != 0 {
		t.Errorf("Added = %d, want 0", rec.Manifest.Added)
	}
}

func TestRunRepairDisabledSkipsStage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRepairDisabled(), testsupport.WithStrategy("nonexistent-strategy"))
	seedLibrary(t, cfg)
	testsupport.WriteEpisode(t, cfg.Paths.MediaDir, "Bootcamp 50/50", "Jess Sims", "S30E001 - Full Body")

	sync := workflow.NewSync(cfg, logging.NewNop())
	rec, err := sync.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.Repair.PassesExecuted != 0 {
		t.Errorf("PassesExecuted = %d, want 0 with repair disabled", rec.Repair.PassesExecuted)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.MediaDir, "Bootcamp 50", "50", "Jess Sims", "S30E001 - Full Body")); err != nil {
		t.Errorf("corrupted folder should be untouched: %v", err)
	}
}

func TestRunMissingMediaRootIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, cfg.Paths.SubscriptionsFile, sampleManifest)
	cfg.Scraper.Strategy = registerFake(t)
	if err := os.Remove(cfg.Paths.MediaDir); err != nil {
		t.Fatalf("remove media dir: %v", err)
	}

	sync := workflow.NewSync(cfg, logging.NewNop())
	if _, err := sync.Run(context.Background()); !services.IsFatal(err) {
		t.Fatalf("expected fatal error for missing media root, got %v", err)
	}
}

func TestRunClassLimitCapsAdditions(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithClassLimit(1))
	seedLibrary(t, cfg)
	cfg.Scraper.Strategy = registerFake(t,
		scraper.ListingRecord{
			ClassID: "ddd444", Title: "Climb Ride", Instructor: "Ben Alldis",
			Activity: activity.Cycling, DurationMinutes: 30,
			PlayerURL: "https://members.onepeloton.com/classes/player/ddd444",
		},
		scraper.ListingRecord{
			ClassID: "eee555", Title: "Intervals Ride", Instructor: "Ben Alldis",
			Activity: activity.Cycling, DurationMinutes: 30,
			PlayerURL: "https://members.onepeloton.com/classes/player/eee555",
		},
	)

	sync := workflow.NewSync(cfg, logging.NewNop())
	rec, err := sync.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.Scrape.ClassesAdded != 1 {
		t.Errorf("ClassesAdded = %d, want 1", rec.Scrape.ClassesAdded)
	}
	if rec.Manifest.Added != 1 {
		t.Errorf("Manifest.Added = %d, want 1", rec.Manifest.Added)
	}
}
