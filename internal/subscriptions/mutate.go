package subscriptions

import (
	"sort"

	"gopkg.in/yaml.v3"

	"subtidy/internal/logging"
	"subtidy/internal/services"
)

// Entry is one episode record ready to be written into the manifest.
type Entry struct {
	Download  string `yaml:"download"`
	Overrides struct {
		TVShowDirectory string `yaml:"tv_show_directory"`
		SeasonNumber    int    `yaml:"season_number"`
		EpisodeNumber   int    `yaml:"episode_number"`
	} `yaml:"overrides"`
}

// NewEntry builds a record for a scraped class.
func NewEntry(downloadURL, tvShowDirectory string, season, episode int) Entry {
	var entry Entry
	entry.Download = downloadURL
	entry.Overrides.TVShowDirectory = tvShowDirectory
	entry.Overrides.SeasonNumber = season
	entry.Overrides.EpisodeNumber = episode
	return entry
}

// RemoveClasses deletes every record whose class identifier is in ids, then
// drops any duration group left empty. The manifest is persisted only when
// something was removed, so a no-op call never rewrites the file.
func (d *Document) RemoveClasses(ids map[string]struct{}) (bool, int, error) {
	if !d.exists {
		d.logger.Warn("subscriptions file does not exist, nothing to remove")
		return false, 0, nil
	}
	if len(ids) == 0 {
		return false, 0, nil
	}

	shows := d.shows()
	if shows == nil {
		d.logger.Warn("no scheduled-show section found in subscriptions")
		return false, 0, nil
	}

	removed := 0
	var emptyGroups []string

	eachEntry(shows, func(groupKey string, group *yaml.Node) {
		var drop []string
		eachEntry(group, func(title string, record *yaml.Node) {
			id, ok := classIDFromURL(scalarValue(record, "download"))
			if !ok {
				return
			}
			if _, downloaded := ids[id]; downloaded {
				drop = append(drop, title)
				d.logger.Info("removing already-downloaded class",
					logging.String("title", title),
					logging.String("class_id", id),
					logging.String("group", groupKey))
			}
		})
		for _, title := range drop {
			if mappingDelete(group, title) {
				removed++
			}
		}
		if len(group.Content) == 0 {
			emptyGroups = append(emptyGroups, groupKey)
		}
	})

	for _, groupKey := range emptyGroups {
		if mappingDelete(shows, groupKey) {
			d.logger.Info("removed empty duration group", logging.String("group", groupKey))
		}
	}

	if removed == 0 && len(emptyGroups) == 0 {
		d.logger.Info("no matching classes found to remove")
		return false, 0, nil
	}
	if err := d.Save(); err != nil {
		return false, removed, err
	}
	d.logger.Info("updated subscriptions manifest", logging.Int("removed", removed))
	return true, removed, nil
}

// AddClasses merges new records into the manifest, grouped by duration key.
// Existing groups gain entries at the end; new groups are appended in the
// order supplied. Returns the number of records written.
func (d *Document) AddClasses(groups map[string]map[string]Entry, order []string) (int, error) {
	if len(groups) == 0 {
		d.logger.Info("no new classes to add")
		return 0, nil
	}

	shows := d.ensureShows()
	added := 0

	for _, groupKey := range order {
		entries, ok := groups[groupKey]
		if !ok {
			continue
		}
		group := mappingValue(shows, groupKey)
		if group == nil {
			group = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			mappingSet(shows, groupKey, group)
		}
		titles := make([]string, 0, len(entries))
		for title := range entries {
			titles = append(titles, title)
		}
		sort.Strings(titles)
		for _, title := range titles {
			node := &yaml.Node{}
			if err := node.Encode(entries[title]); err != nil {
				return added, services.Wrap(services.ErrFatal, "subscriptions", "add",
					"encode manifest record", err)
			}
			mappingSet(group, title, node)
			added++
		}
	}

	if added == 0 {
		return 0, nil
	}
	if err := d.Save(); err != nil {
		return added, err
	}
	d.logger.Info("added new classes to subscriptions", logging.Int("added", added))
	return added, nil
}
