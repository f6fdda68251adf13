// Package services defines the error taxonomy shared by every workflow
// stage. Parse skips, recorded errors, repair failures, and fatal conditions
// are distinguished with sentinel markers so callers classify outcomes with
// errors.Is rather than string matching.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSkip marks an expected, non-fatal skip (unmatched folder pattern,
	// known corruption handled elsewhere, unreadable descriptor).
	ErrSkip = errors.New("skipped")
	// ErrRecord marks an unexpected but non-fatal condition that is counted
	// and skipped (unmapped activity, malformed manifest values).
	ErrRecord = errors.New("recorded error")
	// ErrRepair marks a single failed repair operation; the run continues
	// but finishes unsuccessful.
	ErrRepair = errors.New("repair failure")
	// ErrFatal marks conditions that abort the run (unparsable manifest,
	// missing media root when repair was requested).
	ErrFatal = errors.New("fatal")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error that carries stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinels above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrRecord
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err should abort the run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
