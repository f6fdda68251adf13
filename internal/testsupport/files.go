package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// MkdirAll creates the directory path, failing the test on error.
func MkdirAll(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	MkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteEpisode creates one episode folder under the media root using the
// canonical activity/instructor/folder layout and returns its path.
func WriteEpisode(t testing.TB, mediaRoot, activityDir, instructor, folder string) string {
	t.Helper()
	dir := filepath.Join(mediaRoot, activityDir, instructor, folder)
	MkdirAll(t, dir)
	return dir
}

// WriteInfoJSON drops a yt-dlp style metadata file carrying the class ID
// into an episode directory.
func WriteInfoJSON(t testing.TB, episodeDir, classID string) {
	t.Helper()
	name := filepath.Base(episodeDir) + ".info.json"
	WriteFile(t, filepath.Join(episodeDir, name), fmt.Sprintf(`{"id": %q}`, classID))
}
