package library_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"subtidy/internal/activity"
	"subtidy/internal/library"
	"subtidy/internal/logging"
)

func TestParseFolder(t *testing.T) {
	cases := []struct {
		name    string
		season  int
		episode int
		title   string
		ok      bool
	}{
		{"S20E012 - 20 min Climb Ride", 20, 12, "20 min Climb Ride", true},
		{"S5E3", 5, 3, "S5E3", true},
		{"S2024E105 - Bootcamp Full Body", 2024, 105, "Bootcamp Full Body", true},
		{"Random Folder", 0, 0, "", false},
		{"Season 20 Episode 12", 0, 0, "", false},
	}
	for _, tc := range cases {
		info, ok := library.ParseFolder(tc.name)
		if ok != tc.ok {
			t.Fatalf("ParseFolder(%q) ok = %v, want %v", tc.name, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if info.Season != tc.season || info.Episode != tc.episode {
			t.Fatalf("ParseFolder(%q) = S%dE%d, want S%dE%d", tc.name, info.Season, info.Episode, tc.season, tc.episode)
		}
		if info.Title != tc.title {
			t.Fatalf("ParseFolder(%q) title = %q, want %q", tc.name, info.Title, tc.title)
		}
	}
}

func TestRenumberFolderPadsEpisode(t *testing.T) {
	got := library.RenumberFolder("S20E002 - 30 min Ride", 3)
	if got != "S20E003 - 30 min Ride" {
		t.Fatalf("RenumberFolder = %q", got)
	}
	got = library.RenumberFolder("S5E99 - Stretch", 100)
	if got != "S5E100 - Stretch" {
		t.Fatalf("RenumberFolder widened = %q", got)
	}
	got = library.RenumberFolder("S5E3", 4)
	if got != "S5E004" {
		t.Fatalf("RenumberFolder short form = %q", got)
	}
}

func TestLeafDirs(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "Cycling", "Alex", "S20E001 - Ride"))
	mustMkdir(t, filepath.Join(root, "Cycling", "Alex", "S20E002 - Ride"))
	mustMkdir(t, filepath.Join(root, "Strength", "Ben"))

	leaves, err := library.LeafDirs(root)
	if err != nil {
		t.Fatalf("LeafDirs: %v", err)
	}
	want := []string{
		filepath.Join(root, "Cycling", "Alex", "S20E001 - Ride"),
		filepath.Join(root, "Cycling", "Alex", "S20E002 - Ride"),
		filepath.Join(root, "Strength", "Ben"),
	}
	if len(leaves) != len(want) {
		t.Fatalf("LeafDirs returned %d dirs, want %d: %v", len(leaves), len(want), leaves)
	}
	for i := range want {
		if leaves[i] != want[i] {
			t.Fatalf("leaf[%d] = %q, want %q", i, leaves[i], want[i])
		}
	}
}

func TestScannerLedger(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "Cycling", "Alex", "S20E001 - 20 min Ride"))
	mustMkdir(t, filepath.Join(root, "Cycling", "Alex", "S20E005 - 45 min Ride"))
	mustMkdir(t, filepath.Join(root, "Cycling", "Ben", "S30E002 - 30 min Ride"))
	mustMkdir(t, filepath.Join(root, "Strength", "Cara", "S10E003 - Arms"))
	// Corrupted location: excluded from the ledger entirely.
	mustMkdir(t, filepath.Join(root, "50-50", "Dana", "S45E001 - Bootcamp"))
	// Unknown activity name: recorded and skipped.
	mustMkdir(t, filepath.Join(root, "Underwater Basket Weaving", "Eve", "S5E001 - Intro"))
	// Non-episode leaves are ignored.
	mustMkdir(t, filepath.Join(root, "Cycling", "Alex", "extras"))

	scanner := library.NewScanner(root, nil, logging.NewNop())
	set, err := scanner.Ledger(context.Background())
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}

	cycling := set[activity.Cycling]
	if cycling == nil {
		t.Fatal("no cycling ledger")
	}
	if got := cycling.MaxEpisode(20); got != 5 {
		t.Fatalf("cycling S20 max = %d, want 5", got)
	}
	if got := cycling.MaxEpisode(30); got != 2 {
		t.Fatalf("cycling S30 max = %d, want 2", got)
	}
	if got := cycling.TotalCount(); got != 3 {
		t.Fatalf("cycling count = %d, want 3", got)
	}

	strength := set[activity.Strength]
	if strength == nil || strength.MaxEpisode(10) != 3 {
		t.Fatalf("strength ledger = %+v", strength)
	}

	if got := set.TotalCount(); got != 4 {
		t.Fatalf("total count = %d, want 4 (corrupted and unknown excluded)", got)
	}
}

func TestScannerLedgerMissingRoot(t *testing.T) {
	scanner := library.NewScanner(filepath.Join(t.TempDir(), "absent"), nil, logging.NewNop())
	set, err := scanner.Ledger(context.Background())
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %d activities", len(set))
	}
}

func TestScannerClassIDs(t *testing.T) {
	root := t.TempDir()
	episode := filepath.Join(root, "Cycling", "Alex", "S20E001 - Ride")
	mustMkdir(t, episode)
	writeFile(t, filepath.Join(episode, "S20E001 - Ride.info.json"), `{"id": "abc123", "title": "Ride"}`)

	other := filepath.Join(root, "Strength", "Ben", "S10E001 - Arms")
	mustMkdir(t, other)
	writeFile(t, filepath.Join(other, "S10E001 - Arms.info.json"), `{"id": "def456"}`)
	// Malformed descriptors are skipped, not fatal.
	writeFile(t, filepath.Join(other, "broken.info.json"), `{not json`)
	// Unrelated files are ignored.
	writeFile(t, filepath.Join(other, "notes.txt"), "hello")

	scanner := library.NewScanner(root, nil, logging.NewNop())
	ids, err := scanner.ClassIDs(context.Background())
	if err != nil {
		t.Fatalf("ClassIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2: %v", len(ids), ids)
	}
	for _, id := range []string{"abc123", "def456"} {
		if _, ok := ids[id]; !ok {
			t.Fatalf("missing id %q", id)
		}
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
