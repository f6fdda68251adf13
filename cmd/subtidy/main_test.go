package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	mediaDir := filepath.Join(base, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
media_dir = %q
subscriptions_file = %q
log_dir = %q
lock_file = %q

[scraper]
strategy = "none"
activities = "cycling"

[logging]
format = "console"
level = "error"
`,
		mediaDir,
		filepath.Join(base, "subscriptions.yaml"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "subtidy.lock"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, base
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output missing %q:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when target already exists")
	}

	out, err = runCLI(t, "config", "validate", "--path", target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateReportsFilePresence(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := runCLI(t, "config", "validate", "--path", configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	if strings.Contains(out, "built-in defaults") {
		t.Fatalf("existing file reported as missing:\n%s", out)
	}

	missing := filepath.Join(t.TempDir(), "absent.toml")
	out, err = runCLI(t, "config", "validate", "--path", missing)
	if err != nil {
		t.Fatalf("config validate missing path: %v", err)
	}
	requireContains(t, out, "(using built-in defaults; no file found)")
}

func TestConfigShow(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := runCLI(t, "config", "show", "--path", configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Scraper strategy:    none")
	requireContains(t, out, "cycling")
}

func TestHistoryEmpty(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := runCLI(t, "history", "--config", configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded yet.")
}

func TestValidateCleanTree(t *testing.T) {
	configPath, base := writeTestConfig(t)
	episode := filepath.Join(base, "media", "Cycling", "Hannah Corbin", "S20E001 - Ride")
	if err := os.MkdirAll(episode, 0o755); err != nil {
		t.Fatalf("mkdir episode: %v", err)
	}

	out, err := runCLI(t, "validate", "--config", configPath)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	requireContains(t, out, "no repairs needed")
}

func TestSyncSkipScrape(t *testing.T) {
	configPath, base := writeTestConfig(t)
	episode := filepath.Join(base, "media", "Cycling", "Hannah Corbin", "S20E001 - Ride")
	if err := os.MkdirAll(episode, 0o755); err != nil {
		t.Fatalf("mkdir episode: %v", err)
	}

	out, err := runCLI(t, "sync", "--skip-scrape", "--config", configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "Run Summary")

	out, err = runCLI(t, "history", "--config", configPath)
	if err != nil {
		t.Fatalf("history after sync: %v", err)
	}
	requireContains(t, out, "Run History")
}
