package activity

import "sort"

// SeasonStats records what has been observed for one season of an activity.
// "Season" is the content duration in minutes; the ledger treats it as an
// opaque grouping key.
type SeasonStats struct {
	MaxEpisode int
	Count      int
}

// Ledger tracks the highest episode number seen per season for one activity.
// Updates are monotonic maxima: a lower episode number never shrinks a season
// entry, it only bumps the observation count.
type Ledger struct {
	seasons map[int]SeasonStats
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seasons: make(map[int]SeasonStats)}
}

// Update observes one episode. Non-positive numbers are ignored.
func (l *Ledger) Update(season, episode int) {
	if episode <= 0 {
		return
	}
	stats := l.seasons[season]
	if episode > stats.MaxEpisode {
		stats.MaxEpisode = episode
	}
	stats.Count++
	l.seasons[season] = stats
}

// MaxEpisode returns the highest episode number seen for season, or 0.
func (l *Ledger) MaxEpisode(season int) int {
	return l.seasons[season].MaxEpisode
}

// NextEpisode returns the next free episode number for season, starting at 1.
func (l *Ledger) NextEpisode(season int) int {
	return l.seasons[season].MaxEpisode + 1
}

// Season returns the stats recorded for season.
func (l *Ledger) Season(season int) SeasonStats {
	return l.seasons[season]
}

// Seasons returns every season with observations in ascending order.
func (l *Ledger) Seasons() []int {
	out := make([]int, 0, len(l.seasons))
	for s := range l.seasons {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// TotalCount returns the observation count across all seasons.
func (l *Ledger) TotalCount() int {
	total := 0
	for _, stats := range l.seasons {
		total += stats.Count
	}
	return total
}

func (l *Ledger) clone() *Ledger {
	out := NewLedger()
	for season, stats := range l.seasons {
		out.seasons[season] = stats
	}
	return out
}

// Set maps activities to their ledgers. Each source scan produces its own
// Set; ledgers are never shared between sets.
type Set map[Activity]*Ledger

// Update observes one episode, creating the activity ledger on first use.
func (s Set) Update(a Activity, season, episode int) {
	ledger, ok := s[a]
	if !ok {
		ledger = NewLedger()
		s[a] = ledger
	}
	ledger.Update(season, episode)
}

// TotalCount returns the observation count across every activity.
func (s Set) TotalCount() int {
	total := 0
	for _, ledger := range s {
		total += ledger.TotalCount()
	}
	return total
}

// Merge combines any number of sets into a fresh one. For each
// (activity, season) pair the merged max is the maximum across inputs and
// the count is the sum, so the result is independent of argument order.
func Merge(sets ...Set) Set {
	merged := make(Set)
	for _, set := range sets {
		for a, ledger := range set {
			target, ok := merged[a]
			if !ok {
				merged[a] = ledger.clone()
				continue
			}
			for season, stats := range ledger.seasons {
				existing := target.seasons[season]
				if stats.MaxEpisode > existing.MaxEpisode {
					existing.MaxEpisode = stats.MaxEpisode
				}
				existing.Count += stats.Count
				target.seasons[season] = existing
			}
		}
	}
	return merged
}

// NextEpisode returns the next free episode number for (a, season) in the
// merged set, defaulting to 1 when the pair has never been seen. This is the
// sole allocation primitive used when numbering newly scraped content.
func NextEpisode(merged Set, a Activity, season int) int {
	ledger, ok := merged[a]
	if !ok {
		return 1
	}
	return ledger.NextEpisode(season)
}
