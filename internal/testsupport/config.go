package testsupport

import (
	"path/filepath"
	"testing"

	"subtidy/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.MediaDir = filepath.Join(base, "media")
	cfgVal.Paths.SubscriptionsFile = filepath.Join(base, "subscriptions.yaml")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LockFile = filepath.Join(base, "subtidy.lock")
	cfgVal.Scraper.Activities = "cycling"
	cfgVal.Scraper.ClassLimitPerActivity = 5
	cfgVal.Scraper.PageScrolls = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	MkdirAll(t, cfgVal.Paths.MediaDir)
	return builder.cfg
}

// WithStrategy sets the scraper strategy name on the test config.
func WithStrategy(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scraper.Strategy = name
	}
}

// WithActivities sets the scraped activity selection on the test config.
func WithActivities(selection string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scraper.Activities = selection
	}
}

// WithClassLimit sets the per-activity class limit on the test config.
func WithClassLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scraper.ClassLimitPerActivity = limit
	}
}

// WithRepairDisabled turns off the repair stage on the test config.
func WithRepairDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Repair.Enabled = false
	}
}
