package activity

import "strings"

// DefaultCorruptionFragments lists the known-bad directory name fragments.
// Kept as data rather than logic so deployments can extend the list without
// a rebuild; the defaults reflect every pattern observed in real libraries.
var DefaultCorruptionFragments = []string{
	"50/50",
	"50-50",
	"bootcamp 50",
	"bootcamp: 50",
}

// Detector recognizes corrupted-location directory names and infers the
// canonical activity hidden inside them.
type Detector struct {
	fragments []string
}

// NewDetector builds a detector over the supplied fragment list. An empty
// list falls back to DefaultCorruptionFragments.
func NewDetector(fragments []string) *Detector {
	if len(fragments) == 0 {
		fragments = DefaultCorruptionFragments
	}
	lowered := make([]string, 0, len(fragments))
	for _, f := range fragments {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			lowered = append(lowered, f)
		}
	}
	return &Detector{fragments: lowered}
}

// IsCorrupted reports whether name carries a known corruption fragment.
func (d *Detector) IsCorrupted(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range d.fragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// Infer attempts to recover the canonical activity from a corrupted
// directory name such as "Bootcamp 50" or "Bike Bootcamp 50/50".
func (d *Detector) Infer(name string) (Activity, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "bike"):
		return BikeBootcamp, true
	case strings.Contains(lower, "row"):
		return RowBootcamp, true
	case strings.Contains(lower, "bootcamp"):
		return Bootcamp, true
	}
	return Unknown, false
}

// InferFromPath scans a whole path for activity clues. Bootcamp variants are
// checked first because their names embed other keywords ("bike", "row").
func (d *Detector) InferFromPath(path string) (Activity, bool) {
	lower := strings.ToLower(path)
	if strings.Contains(lower, "bootcamp") {
		switch {
		case strings.Contains(lower, "bike"):
			return BikeBootcamp, true
		case strings.Contains(lower, "row"):
			return RowBootcamp, true
		default:
			return Bootcamp, true
		}
	}
	switch {
	case strings.Contains(lower, "cycling"), strings.Contains(lower, "bike"):
		return Cycling, true
	case strings.Contains(lower, "strength"):
		return Strength, true
	case strings.Contains(lower, "yoga"):
		return Yoga, true
	case strings.Contains(lower, "running"), strings.Contains(lower, "tread"):
		return Running, true
	case strings.Contains(lower, "walking"):
		return Walking, true
	case strings.Contains(lower, "rowing"), strings.Contains(lower, "row"):
		return Rowing, true
	case strings.Contains(lower, "cardio"):
		return Cardio, true
	case strings.Contains(lower, "stretching"):
		return Stretching, true
	case strings.Contains(lower, "meditation"):
		return Meditation, true
	}
	return Unknown, false
}
