package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"subtidy/internal/activity"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	MediaDir          string `toml:"media_dir"`
	SubscriptionsFile string `toml:"subscriptions_file"`
	LogDir            string `toml:"log_dir"`
	LockFile          string `toml:"lock_file"`
}

// Scraper contains catalog scraping settings. Credentials come from the
// SUBTIDY_USERNAME / SUBTIDY_PASSWORD environment variables, never the file.
type Scraper struct {
	Strategy              string `toml:"strategy"`
	Activities            string `toml:"activities"`
	ClassLimitPerActivity int    `toml:"class_limit_per_activity"`
	PageScrolls           int    `toml:"page_scrolls"`
	Username              string `toml:"-"`
	Password              string `toml:"-"`
}

// Repair contains directory validation and repair settings.
type Repair struct {
	Enabled            bool     `toml:"enabled"`
	MaxPasses          int      `toml:"max_passes"`
	CorruptedFragments []string `toml:"corrupted_fragments"`
}

// History contains subscription-history retention settings.
type History struct {
	PurgeDays   int `toml:"purge_days"`
	WarningDays int `toml:"warning_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subtidy.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Scraper Scraper `toml:"scraper"`
	Repair  Repair  `toml:"repair"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subtidy/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second and third
// return values report which path was used and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("subtidy.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := os.LookupEnv("SUBTIDY_USERNAME"); ok {
		c.Scraper.Username = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("SUBTIDY_PASSWORD"); ok {
		c.Scraper.Password = v
	}
	if v, ok := os.LookupEnv("SUBTIDY_MEDIA_DIR"); ok && strings.TrimSpace(v) != "" {
		c.Paths.MediaDir = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("SUBTIDY_SUBSCRIPTIONS_FILE"); ok && strings.TrimSpace(v) != "" {
		c.Paths.SubscriptionsFile = strings.TrimSpace(v)
	}
}

// Activities returns the configured activity selection.
func (c *Config) Activities() ([]activity.Activity, error) {
	return activity.ParseList(c.Scraper.Activities)
}

// HistoryFile returns the subscription-history path, which always lives
// beside the manifest.
func (c *Config) HistoryFile() string {
	return filepath.Join(filepath.Dir(c.Paths.SubscriptionsFile), "subscription-history.json")
}

// EnsureDirectories creates the directories a run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, filepath.Dir(c.Paths.LockFile)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
