package services_test

import (
	"errors"
	"testing"

	"subtidy/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrRepair, "repair", "move episode", "destination unavailable", base)

	if !errors.Is(err, services.ErrRepair) {
		t.Fatalf("expected repair marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsToRecord(t *testing.T) {
	err := services.Wrap(nil, "library", "parse folder", "", nil)
	if !errors.Is(err, services.ErrRecord) {
		t.Fatalf("expected record marker, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	if services.IsFatal(services.Wrap(services.ErrRecord, "s", "o", "m", nil)) {
		t.Fatal("recorded errors must not be fatal")
	}
	if !services.IsFatal(services.Wrap(services.ErrFatal, "manifest", "parse", "bad yaml", nil)) {
		t.Fatal("fatal marker not detected")
	}
	if !services.IsFatal(services.Wrap(services.ErrConfiguration, "config", "validate", "missing media dir", nil)) {
		t.Fatal("configuration errors are fatal")
	}
}
