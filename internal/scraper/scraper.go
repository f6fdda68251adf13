// Package scraper defines the pluggable scraping surface: a strategy yields
// raw listing records per activity, and the sync workflow turns them into
// manifest entries. Strategies are registered at compile time and resolved
// by name from configuration; no reflection or dynamic loading.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"subtidy/internal/activity"
)

// Credentials authenticate a scraping session.
type Credentials struct {
	Username string
	Password string
}

// ListingRecord is one class offering as reported by a strategy.
type ListingRecord struct {
	ClassID         string
	Title           string
	Instructor      string
	Activity        activity.Activity
	DurationMinutes int
	PlayerURL       string
}

// GroupKey returns the manifest duration-group heading for this record,
// e.g. "= Cycling (20 min)".
func (r ListingRecord) GroupKey() string {
	return fmt.Sprintf("= %s (%d min)", r.Activity.DisplayName(), r.DurationMinutes)
}

// EpisodeTitle returns the manifest episode key. Slashes would split YAML
// paths downstream, so they are replaced.
func (r ListingRecord) EpisodeTitle() string {
	title := fmt.Sprintf("%s with %s", r.Title, r.Instructor)
	return strings.ReplaceAll(title, "/", "-")
}

// TVShowDirectory returns the override target path for this record under
// the given media root.
func (r ListingRecord) TVShowDirectory(mediaRoot string) string {
	return path.Join(mediaRoot, r.Activity.DisplayName(), r.Instructor)
}

// Request scopes one scraping pass over a single activity.
type Request struct {
	Activity    activity.Activity
	ClassLimit  int
	PageScrolls int
	// KnownIDs lists classes already downloaded or subscribed; strategies
	// should skip them rather than report duplicates.
	KnownIDs map[string]struct{}
}

// Result is what a strategy found for one activity.
type Result struct {
	Activity activity.Activity
	Records  []ListingRecord
	Found    int
	Skipped  int
	Errors   int
}

// Session is an authenticated scraping context owned by a SessionManager.
type Session interface {
	Close() error
}

// SessionManager opens authenticated sessions for a strategy family.
type SessionManager interface {
	Open(ctx context.Context, creds Credentials) (Session, error)
}

// LoginStrategy performs provider-specific authentication inside an open
// session.
type LoginStrategy interface {
	Login(ctx context.Context, session Session, creds Credentials) error
}

// ScraperStrategy lists classes for one activity inside a logged-in session.
type ScraperStrategy interface {
	Name() string
	Scrape(ctx context.Context, session Session, req Request) (Result, error)
}

// Strategy bundles the three capabilities a provider implements.
type Strategy struct {
	Sessions SessionManager
	Login    LoginStrategy
	Scraper  ScraperStrategy
}

// Constructor builds a strategy instance for one run.
type Constructor func(logger *slog.Logger) (Strategy, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register adds a strategy constructor under a name. Later registrations
// for the same name replace earlier ones.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// New resolves a registered strategy by name.
func New(name string, logger *slog.Logger) (Strategy, error) {
	registryMu.RLock()
	ctor, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return Strategy{}, fmt.Errorf("unknown scraper strategy %q (registered: %s)",
			name, strings.Join(Names(), ", "))
	}
	return ctor(logger)
}

// Registered reports whether a strategy name is available.
func Registered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[strings.ToLower(name)]
	return ok
}

// Names lists registered strategy names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
