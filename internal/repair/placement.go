package repair

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"subtidy/internal/activity"
	"subtidy/internal/library"
)

// Placement is one discovered episode folder. Unlike the ledger parser,
// the scan keeps folders under corrupted location names so the engine can
// move them. Placements are rebuilt on every scan and never persisted.
type Placement struct {
	Path       string
	Activity   activity.Activity
	Instructor string
	Season     int
	Episode    int
	Title      string
	Corrupted  bool
	ParentMod  time.Time
}

// Key identifies the (activity, season, episode) claim this placement holds.
type Key struct {
	Activity activity.Activity
	Season   int
	Episode  int
}

// Key returns the placement's episode-number claim.
func (p *Placement) Key() Key {
	return Key{Activity: p.Activity, Season: p.Season, Episode: p.Episode}
}

// Scan walks the media tree and builds a placement for every leaf directory
// carrying an episode token. Folders that sit under a corruption fragment,
// or deeper than the canonical Activity/Instructor/Episode nesting, are
// flagged corrupted with their activity re-derived from path clues.
func Scan(root string, detector *activity.Detector) ([]Placement, error) {
	leaves, err := library.LeafDirs(root)
	if err != nil {
		return nil, err
	}

	placements := make([]Placement, 0, len(leaves))
	for _, dir := range leaves {
		info, ok := library.ParseFolder(filepath.Base(dir))
		if !ok {
			continue
		}
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			continue
		}
		parts := strings.Split(rel, string(filepath.Separator))

		p := Placement{
			Path:    dir,
			Season:  info.Season,
			Episode: info.Episode,
			Title:   info.Title,
		}
		if len(parts) >= 2 {
			p.Instructor = parts[len(parts)-2]
		} else {
			p.Instructor = "Unknown"
		}
		if stat, err := os.Stat(filepath.Dir(dir)); err == nil {
			p.ParentMod = stat.ModTime()
		}

		switch {
		case len(parts) != 3:
			// Wrong nesting depth: a corrupted composite folder adds a
			// level, e.g. Bootcamp 50/50/Instructor/Episode.
			p.Corrupted = true
		case detector.IsCorrupted(parts[0]):
			p.Corrupted = true
		default:
			if act, ok := activity.Parse(parts[0]); ok {
				p.Activity = act
			}
		}
		if p.Corrupted {
			if act, ok := detector.InferFromPath(rel); ok {
				p.Activity = act
			}
		}
		placements = append(placements, p)
	}
	return placements, nil
}

// Conflict is a group of placements claiming the same episode number.
type Conflict struct {
	Key        Key
	Placements []*Placement
}

// detectConflicts groups placements by claim and returns every group of two
// or more. Placements without a resolvable activity cannot conflict.
func detectConflicts(placements []*Placement) []Conflict {
	groups := make(map[Key][]*Placement)
	var order []Key
	for _, p := range placements {
		if p.Activity == activity.Unknown {
			continue
		}
		key := p.Key()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	var conflicts []Conflict
	for _, key := range order {
		if members := groups[key]; len(members) > 1 {
			conflicts = append(conflicts, Conflict{Key: key, Placements: members})
		}
	}
	return conflicts
}

// maxEpisode returns the highest episode number currently claimed for the
// (activity, season) pair across all placements.
func maxEpisode(placements []*Placement, act activity.Activity, season int) int {
	highest := 0
	for _, p := range placements {
		if p.Activity == act && p.Season == season && p.Episode > highest {
			highest = p.Episode
		}
	}
	return highest
}
