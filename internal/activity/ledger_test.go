package activity_test

import (
	"reflect"
	"testing"

	"subtidy/internal/activity"
)

func TestLedgerMonotonicMax(t *testing.T) {
	ledger := activity.NewLedger()
	ledger.Update(20, 5)
	ledger.Update(20, 3)
	if got := ledger.MaxEpisode(20); got != 5 {
		t.Fatalf("MaxEpisode = %d, want 5", got)
	}
	if got := ledger.Season(20).Count; got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
	ledger.Update(20, 0)
	if got := ledger.Season(20).Count; got != 2 {
		t.Fatalf("Count after ignored update = %d, want 2", got)
	}
}

func TestLedgerNextEpisode(t *testing.T) {
	ledger := activity.NewLedger()
	if got := ledger.NextEpisode(45); got != 1 {
		t.Fatalf("NextEpisode on empty season = %d, want 1", got)
	}
	ledger.Update(45, 7)
	if got := ledger.NextEpisode(45); got != 8 {
		t.Fatalf("NextEpisode = %d, want 8", got)
	}
}

func TestMergeTakesPerSeasonMaximum(t *testing.T) {
	a := activity.Set{}
	a.Update(activity.Cycling, 20, 5)

	b := activity.Set{}
	b.Update(activity.Cycling, 20, 8)
	b.Update(activity.Cycling, 45, 2)

	merged := activity.Merge(a, b)
	cycling := merged[activity.Cycling]
	if cycling == nil {
		t.Fatal("missing cycling ledger")
	}
	if got := cycling.MaxEpisode(20); got != 8 {
		t.Fatalf("season 20 max = %d, want 8", got)
	}
	if got := cycling.MaxEpisode(45); got != 2 {
		t.Fatalf("season 45 max = %d, want 2", got)
	}
	if got := cycling.Season(20).Count; got != 2 {
		t.Fatalf("season 20 count = %d, want 2", got)
	}
}

func TestMergeIsOrderIndependent(t *testing.T) {
	a := activity.Set{}
	a.Update(activity.Cycling, 20, 5)
	a.Update(activity.Yoga, 30, 1)

	b := activity.Set{}
	b.Update(activity.Cycling, 20, 8)
	b.Update(activity.Strength, 10, 4)

	ab := activity.Merge(a, b)
	ba := activity.Merge(b, a)

	if len(ab) != len(ba) {
		t.Fatalf("merged sizes differ: %d vs %d", len(ab), len(ba))
	}
	for act, ledger := range ab {
		other, ok := ba[act]
		if !ok {
			t.Fatalf("activity %v missing from reversed merge", act)
		}
		if !reflect.DeepEqual(ledger.Seasons(), other.Seasons()) {
			t.Fatalf("seasons differ for %v", act)
		}
		for _, season := range ledger.Seasons() {
			if ledger.Season(season) != other.Season(season) {
				t.Fatalf("stats differ for %v season %d", act, season)
			}
		}
	}
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	a := activity.Set{}
	a.Update(activity.Cycling, 20, 5)

	merged := activity.Merge(a)
	merged.Update(activity.Cycling, 20, 9)

	if got := a[activity.Cycling].MaxEpisode(20); got != 5 {
		t.Fatalf("input ledger mutated: max = %d, want 5", got)
	}
}

func TestNextEpisodeFromMerged(t *testing.T) {
	a := activity.Set{}
	a.Update(activity.Cycling, 20, 5)
	merged := activity.Merge(a)

	if got := activity.NextEpisode(merged, activity.Cycling, 20); got != 6 {
		t.Fatalf("NextEpisode = %d, want 6", got)
	}
	if got := activity.NextEpisode(merged, activity.Cycling, 45); got != 1 {
		t.Fatalf("NextEpisode unseen season = %d, want 1", got)
	}
	if got := activity.NextEpisode(merged, activity.Yoga, 30); got != 1 {
		t.Fatalf("NextEpisode unseen activity = %d, want 1", got)
	}
}
