package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScraper(); err != nil {
		return err
	}
	if err := c.validateRepair(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		return errors.New("paths.media_dir must be set")
	}
	if strings.TrimSpace(c.Paths.SubscriptionsFile) == "" {
		return errors.New("paths.subscriptions_file must be set")
	}
	return nil
}

func (c *Config) validateScraper() error {
	if c.Scraper.ClassLimitPerActivity <= 0 {
		return errors.New("scraper.class_limit_per_activity must be positive")
	}
	if c.Scraper.PageScrolls <= 0 {
		return errors.New("scraper.page_scrolls must be positive")
	}
	if _, err := c.Activities(); err != nil {
		return fmt.Errorf("scraper.activities: %w", err)
	}
	return nil
}

func (c *Config) validateRepair() error {
	if c.Repair.MaxPasses <= 0 {
		return errors.New("repair.max_passes must be positive")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.PurgeDays <= 0 {
		return errors.New("history.purge_days must be positive")
	}
	if c.History.WarningDays < 0 {
		return errors.New("history.warning_days must not be negative")
	}
	if c.History.WarningDays >= c.History.PurgeDays {
		return errors.New("history.warning_days must be smaller than history.purge_days")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
