package activity

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Activity is one exercise category. The zero value means "unresolved".
type Activity int

const (
	Unknown Activity = iota
	Strength
	Yoga
	Meditation
	Cardio
	Stretching
	Cycling
	Running
	Walking
	Bootcamp
	BikeBootcamp
	Rowing
	RowBootcamp
)

var names = map[Activity]string{
	Strength:     "strength",
	Yoga:         "yoga",
	Meditation:   "meditation",
	Cardio:       "cardio",
	Stretching:   "stretching",
	Cycling:      "cycling",
	Running:      "running",
	Walking:      "walking",
	Bootcamp:     "bootcamp",
	BikeBootcamp: "bike_bootcamp",
	Rowing:       "rowing",
	RowBootcamp:  "row_bootcamp",
}

// aliases maps legacy or variant directory names onto canonical activities.
var aliases = map[string]Activity{
	"tread bootcamp": Bootcamp,
	"row bootcamp":   RowBootcamp,
	"bike bootcamp":  BikeBootcamp,
}

var byName = func() map[string]Activity {
	m := make(map[string]Activity, len(names))
	for a, n := range names {
		m[n] = a
	}
	return m
}()

var titleCaser = cases.Title(language.English)

// All returns every concrete activity in declaration order.
func All() []Activity {
	return []Activity{
		Strength, Yoga, Meditation, Cardio, Stretching, Cycling,
		Running, Walking, Bootcamp, BikeBootcamp, Rowing, RowBootcamp,
	}
}

// Name returns the canonical lowercase identifier.
func (a Activity) Name() string {
	if n, ok := names[a]; ok {
		return n
	}
	return "unknown"
}

// DisplayName returns the Title-cased directory form, e.g. "Bike Bootcamp".
func (a Activity) DisplayName() string {
	return titleCaser.String(strings.ReplaceAll(a.Name(), "_", " "))
}

func (a Activity) String() string { return a.Name() }

// Parse resolves a directory or config name to an activity. Matching is
// case-insensitive and consults the canonical table first, then the alias
// table. Display forms ("Bike Bootcamp") resolve through the alias path.
func Parse(name string) (Activity, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Unknown, false
	}
	if a, ok := byName[key]; ok {
		return a, true
	}
	if a, ok := aliases[key]; ok {
		return a, true
	}
	// Directory names use spaces where canonical names use underscores.
	if a, ok := byName[strings.ReplaceAll(key, " ", "_")]; ok {
		return a, true
	}
	return Unknown, false
}

// ParseList parses a comma-separated activity selection. An empty value and
// the literal "all" both select every activity. Unrecognized entries are an
// error so configuration typos surface at startup.
func ParseList(value string) ([]Activity, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return All(), nil
	}
	var selected []Activity
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		a, ok := Parse(part)
		if !ok {
			return nil, fmt.Errorf("unknown activity %q", part)
		}
		selected = append(selected, a)
	}
	if len(selected) == 0 {
		return All(), nil
	}
	return selected, nil
}
