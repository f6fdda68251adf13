package subscriptions

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"subtidy/internal/activity"
	"subtidy/internal/logging"
)

var (
	playerURLPattern = regexp.MustCompile(`/classes/player/([A-Za-z0-9]+)`)
	classIDPattern   = regexp.MustCompile(`[?&]classId=([A-Za-z0-9]+)`)
)

// Ledger builds the per-activity episode ledger from the manifest. The
// absence of the scheduled-show section yields an empty ledger, not an
// error. Records with malformed numbers or unmapped activities are logged
// and skipped.
func (d *Document) Ledger() activity.Set {
	set := make(activity.Set)

	shows := d.shows()
	if shows == nil {
		d.logger.Warn("no scheduled-show section found in subscriptions")
		return set
	}

	total := 0
	eachEntry(shows, func(groupKey string, group *yaml.Node) {
		eachEntry(group, func(title string, record *yaml.Node) {
			overrides := mappingValue(record, "overrides")
			if overrides == nil {
				return
			}
			seasonText := scalarValue(overrides, "season_number")
			episodeText := scalarValue(overrides, "episode_number")
			directory := scalarValue(overrides, "tv_show_directory")
			if seasonText == "" || episodeText == "" || directory == "" {
				return
			}

			season, err := strconv.Atoi(seasonText)
			if err != nil {
				d.logger.Error("invalid season number in manifest record",
					logging.String("title", title),
					logging.String("value", seasonText))
				return
			}
			episode, err := strconv.Atoi(episodeText)
			if err != nil {
				d.logger.Error("invalid episode number in manifest record",
					logging.String("title", title),
					logging.String("value", episodeText))
				return
			}

			act, ok := activityFromDirectory(directory)
			if !ok {
				d.logger.Error("tv_show_directory does not map to a known activity",
					logging.String("title", title),
					logging.String(logging.FieldPath, directory))
				return
			}

			set.Update(act, season, episode)
			total++
		})
	})

	d.logger.Info("parsed subscription manifest",
		logging.Int("episodes", total),
		logging.Int("activities", len(set)))
	return set
}

// ClassIDs extracts the class identifier from every record's download URL,
// covering both the player-URL shape and the legacy classId query form.
func (d *Document) ClassIDs() map[string]struct{} {
	ids := make(map[string]struct{})

	eachEntry(d.body(), func(_ string, category *yaml.Node) {
		eachEntry(category, func(_ string, group *yaml.Node) {
			eachEntry(group, func(_ string, record *yaml.Node) {
				if id, ok := classIDFromURL(scalarValue(record, "download")); ok {
					ids[id] = struct{}{}
				}
			})
		})
	})

	d.logger.Info("found subscription class IDs", logging.Int("class_ids", len(ids)))
	return ids
}

// activityFromDirectory resolves the activity from a target path of the
// shape /media/peloton/{Activity}/{Instructor}: the activity is the
// second-to-last segment.
func activityFromDirectory(directory string) (activity.Activity, bool) {
	parts := strings.Split(strings.TrimRight(directory, "/"), "/")
	if len(parts) < 4 {
		return activity.Unknown, false
	}
	return activity.Parse(parts[len(parts)-2])
}

func classIDFromURL(url string) (string, bool) {
	if match := playerURLPattern.FindStringSubmatch(url); match != nil {
		return match[1], true
	}
	if match := classIDPattern.FindStringSubmatch(url); match != nil {
		return match[1], true
	}
	return "", false
}
