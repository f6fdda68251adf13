package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"

	"subtidy/internal/activity"
	"subtidy/internal/config"
	"subtidy/internal/history"
	"subtidy/internal/library"
	"subtidy/internal/logging"
	"subtidy/internal/metrics"
	"subtidy/internal/repair"
	"subtidy/internal/scraper"
	"subtidy/internal/services"
	"subtidy/internal/subscriptions"
)

// Sync is the full subscription-maintenance run.
type Sync struct {
	cfg        *config.Config
	logger     *slog.Logger
	dryRun     bool
	skipRepair bool
	skipScrape bool
}

// SyncOption adjusts run behavior.
type SyncOption func(*Sync)

// WithDryRun simulates every mutation: the repair engine counts what it
// would do, and manifest/history writes are skipped.
func WithDryRun(dryRun bool) SyncOption {
	return func(s *Sync) { s.dryRun = dryRun }
}

// WithSkipRepair disables the directory validation stage for this run.
func WithSkipRepair(skip bool) SyncOption {
	return func(s *Sync) { s.skipRepair = skip }
}

// WithSkipScrape disables the scraping stage for this run.
func WithSkipScrape(skip bool) SyncOption {
	return func(s *Sync) { s.skipScrape = skip }
}

// NewSync builds a run over the given configuration.
func NewSync(cfg *config.Config, logger *slog.Logger, opts ...SyncOption) *Sync {
	s := &Sync{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "workflow"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the synchronization pipeline and returns the finalized
// metrics record. A non-nil error is fatal; non-fatal failures are counted
// in the record and reflected in its success flag.
func (s *Sync) Run(ctx context.Context) (*metrics.RunMetrics, error) {
	rec := metrics.NewRun()
	ctx = logging.WithRunID(ctx, rec.RunID)
	logger := logging.WithContext(ctx, s.logger)

	lock := flock.New(s.cfg.Paths.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		err = services.Wrap(services.ErrFatal, "workflow", "lock", "acquire run lock", err)
		rec.Finalize(err)
		return rec, err
	}
	if !locked {
		err = services.Wrap(services.ErrFatal, "workflow", "lock",
			fmt.Sprintf("another run holds %s", s.cfg.Paths.LockFile), nil)
		rec.Finalize(err)
		return rec, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	logger.Info("starting sync run", logging.Bool("dry_run", s.dryRun))
	if err := s.run(ctx, rec); err != nil {
		rec.Finalize(err)
		return rec, err
	}

	var runErr error
	if !rec.Success {
		runErr = errors.New("run completed with repair failures")
	}
	rec.Finalize(runErr)
	return rec, nil
}

func (s *Sync) run(ctx context.Context, rec *metrics.RunMetrics) error {
	store := history.NewStore(s.cfg.HistoryFile(), s.cfg.History.PurgeDays, s.cfg.History.WarningDays, s.logger)
	rec.History.PurgeDays = s.cfg.History.PurgeDays
	rec.History.WarningDays = s.cfg.History.WarningDays

	previous, err := store.LatestSnapshot()
	if err != nil {
		return err
	}
	rec.ApplyPrevious(previous)

	detector := activity.NewDetector(s.cfg.Repair.CorruptedFragments)

	if s.cfg.Repair.Enabled && !s.skipRepair {
		stageCtx := logging.WithStage(ctx, "repair")
		engine := repair.NewEngine(repair.Options{
			Root:      s.cfg.Paths.MediaDir,
			Detector:  detector,
			DryRun:    s.dryRun,
			MaxPasses: s.cfg.Repair.MaxPasses,
			Logger:    s.logger,
		})
		ok, err := engine.Run(stageCtx, &rec.Repair)
		if err != nil {
			return err
		}
		if !ok {
			rec.Success = false
		}
	}

	// Inventory both episode sources and merge their ledgers.
	scanCtx := logging.WithStage(ctx, "inventory")
	scanner := library.NewScanner(s.cfg.Paths.MediaDir, detector, s.logger)
	diskSet, err := scanner.Ledger(scanCtx)
	if err != nil {
		return services.Wrap(services.ErrFatal, "inventory", "scan", "parse filesystem episodes", err)
	}
	diskIDs, err := scanner.ClassIDs(scanCtx)
	if err != nil {
		return services.Wrap(services.ErrFatal, "inventory", "scan", "collect class IDs", err)
	}

	doc, err := subscriptions.Load(s.cfg.Paths.SubscriptionsFile, s.logger)
	if err != nil {
		return err
	}
	manifestSet := doc.Ledger()
	manifestIDs := doc.ClassIDs()

	merged := activity.Merge(diskSet, manifestSet)
	s.recordInventory(rec, diskSet, manifestSet, merged, diskIDs, manifestIDs)
	rec.Manifest.BeforeCleanup = len(manifestIDs)

	// Prune manifest records that are already on disk or have gone stale.
	pruneCtx := logging.WithStage(ctx, "cleanup")
	if err := s.pruneManifest(pruneCtx, doc, store, diskIDs, manifestIDs, rec); err != nil {
		return err
	}
	rec.Manifest.AfterCleanup = len(doc.ClassIDs())
	rec.Library.ManifestAfterCleanup = rec.Manifest.AfterCleanup

	// Pull new classes and write them back with collision-free numbers.
	if !s.skipScrape {
		scrapeCtx := logging.WithStage(ctx, "scrape")
		if err := s.scrape(scrapeCtx, doc, merged, diskIDs, rec); err != nil {
			return err
		}
	}

	// Reconcile history with the manifest's final state and log the run.
	historyCtx := logging.WithStage(ctx, "history")
	return s.recordHistory(historyCtx, doc, store, rec)
}

func (s *Sync) recordInventory(rec *metrics.RunMetrics, disk, manifest, merged activity.Set, diskIDs, manifestIDs map[string]struct{}) {
	rec.Library.TotalActivities = len(merged)
	rec.Library.EpisodesOnDisk = disk.TotalCount()
	rec.Library.EpisodesInManifest = manifest.TotalCount()

	union := make(map[string]struct{}, len(diskIDs)+len(manifestIDs))
	for id := range diskIDs {
		union[id] = struct{}{}
	}
	for id := range manifestIDs {
		union[id] = struct{}{}
	}
	rec.Library.ClassIDs = len(union)

	byActivity := make(map[string]int, len(merged))
	for act, ledger := range merged {
		byActivity[act.Name()] = ledger.TotalCount()
	}
	rec.Library.EpisodesByActivity = byActivity
}

func (s *Sync) pruneManifest(ctx context.Context, doc *subscriptions.Document, store *history.Store, diskIDs, manifestIDs map[string]struct{}, rec *metrics.RunMetrics) error {
	logger := logging.WithContext(ctx, s.logger)
	downloaded := intersect(manifestIDs, diskIDs)

	stale, err := store.StaleIDs()
	if err != nil {
		return err
	}
	staleInManifest := intersect(manifestIDs, stale)
	rec.History.StaleFound = len(staleInManifest)

	if s.dryRun {
		// A class can be both downloaded and stale; the live path removes
		// it on the downloaded pass, so don't count it again here.
		staleOnly := 0
		for id := range staleInManifest {
			if _, ok := downloaded[id]; !ok {
				staleOnly++
			}
		}
		rec.Manifest.RemovedDownloaded = len(downloaded)
		rec.Manifest.RemovedStale = staleOnly
		logger.Info("dry run: skipping manifest cleanup",
			logging.Int("downloaded", len(downloaded)),
			logging.Int("stale", staleOnly))
		return nil
	}

	_, removed, err := doc.RemoveClasses(downloaded)
	if err != nil {
		return err
	}
	rec.Manifest.RemovedDownloaded = removed

	_, removed, err = doc.RemoveClasses(staleInManifest)
	if err != nil {
		return err
	}
	rec.Manifest.RemovedStale = removed
	return nil
}

func (s *Sync) scrape(ctx context.Context, doc *subscriptions.Document, merged activity.Set, diskIDs map[string]struct{}, rec *metrics.RunMetrics) error {
	logger := logging.WithContext(ctx, s.logger)
	rec.Scrape.PageScrolls = s.cfg.Scraper.PageScrolls
	rec.Scrape.ClassLimit = s.cfg.Scraper.ClassLimitPerActivity

	if !scraper.Registered(s.cfg.Scraper.Strategy) {
		logger.Warn("scraper strategy not available, skipping scrape stage",
			logging.String("strategy", s.cfg.Scraper.Strategy))
		return nil
	}
	strategy, err := scraper.New(s.cfg.Scraper.Strategy, s.logger)
	if err != nil {
		return services.Wrap(services.ErrFatal, "scrape", "init", "resolve scraper strategy", err)
	}

	creds := scraper.Credentials{Username: s.cfg.Scraper.Username, Password: s.cfg.Scraper.Password}
	session, err := strategy.Sessions.Open(ctx, creds)
	if err != nil {
		return services.Wrap(services.ErrFatal, "scrape", "session", "open scraping session", err)
	}
	defer session.Close()
	if err := strategy.Login.Login(ctx, session, creds); err != nil {
		return services.Wrap(services.ErrFatal, "scrape", "login", "authenticate", err)
	}

	activities, err := s.cfg.Activities()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "scrape", "init", "parse activity selection", err)
	}

	known := make(map[string]struct{}, len(diskIDs))
	for id := range diskIDs {
		known[id] = struct{}{}
	}
	for id := range doc.ClassIDs() {
		known[id] = struct{}{}
	}

	groups := make(map[string]map[string]subscriptions.Entry)
	var order []string

	for _, act := range activities {
		result, err := strategy.Scraper.Scrape(ctx, session, scraper.Request{
			Activity:    act,
			ClassLimit:  s.cfg.Scraper.ClassLimitPerActivity,
			PageScrolls: s.cfg.Scraper.PageScrolls,
			KnownIDs:    known,
		})
		rec.Scrape.ActivitiesScraped++
		if err != nil {
			logger.Error("scrape failed for activity",
				logging.String(logging.FieldActivity, act.Name()),
				logging.Error(err))
			rec.Scrape.Errors++
			rec.Success = false
			continue
		}
		rec.Scrape.ClassesFound += result.Found
		rec.Scrape.ClassesSkipped += result.Skipped
		rec.Scrape.Errors += result.Errors

		added := 0
		for _, record := range result.Records {
			if added >= s.cfg.Scraper.ClassLimitPerActivity {
				break
			}
			if _, seen := known[record.ClassID]; seen {
				rec.Scrape.ClassesSkipped++
				continue
			}

			season := record.DurationMinutes
			episode := activity.NextEpisode(merged, record.Activity, season)
			merged.Update(record.Activity, season, episode)

			groupKey := record.GroupKey()
			if _, ok := groups[groupKey]; !ok {
				groups[groupKey] = make(map[string]subscriptions.Entry)
				order = append(order, groupKey)
			}
			groups[groupKey][record.EpisodeTitle()] = subscriptions.NewEntry(
				record.PlayerURL,
				record.TVShowDirectory(s.cfg.Paths.MediaDir),
				season, episode)
			known[record.ClassID] = struct{}{}
			added++

			logger.Info("queueing new class",
				logging.String(logging.FieldActivity, record.Activity.Name()),
				logging.Int(logging.FieldSeason, season),
				logging.Int(logging.FieldEpisode, episode),
				logging.String("class_id", record.ClassID))
		}
		rec.Scrape.ClassesAdded += added
	}

	if s.dryRun {
		logger.Info("dry run: skipping manifest write-back",
			logging.Int("queued", rec.Scrape.ClassesAdded))
		rec.Manifest.Added = rec.Scrape.ClassesAdded
		return nil
	}
	addedTotal, err := doc.AddClasses(groups, order)
	if err != nil {
		return err
	}
	rec.Manifest.Added = addedTotal
	return nil
}

func (s *Sync) recordHistory(ctx context.Context, doc *subscriptions.Document, store *history.Store, rec *metrics.RunMetrics) error {
	logger := logging.WithContext(ctx, s.logger)
	currentIDs := doc.ClassIDs()

	if s.dryRun {
		logger.Info("dry run: skipping history update",
			logging.Int("manifest_ids", len(currentIDs)))
		rec.History.Tracked = len(currentIDs)
		return nil
	}

	added, removed, err := store.Sync(currentIDs)
	if err != nil {
		return err
	}
	rec.History.Added = added
	rec.History.Removed = removed
	rec.History.Synced = true

	tracked, err := store.TrackedIDs()
	if err != nil {
		return err
	}
	rec.History.Tracked = len(tracked)

	near, err := store.NearPurgeCount()
	if err != nil {
		return err
	}
	rec.History.NearPurge = near

	return store.AppendSnapshot(rec.Snapshot())
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}
