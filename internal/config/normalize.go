package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScraper()
	c.normalizeRepair()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	if c.Paths.SubscriptionsFile, err = expandPath(c.Paths.SubscriptionsFile); err != nil {
		return fmt.Errorf("paths.subscriptions_file: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.LockFile, err = expandPath(c.Paths.LockFile); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeScraper() {
	c.Scraper.Strategy = strings.ToLower(strings.TrimSpace(c.Scraper.Strategy))
	if c.Scraper.Strategy == "" {
		c.Scraper.Strategy = defaultScraperStrategy
	}
	c.Scraper.Activities = strings.TrimSpace(c.Scraper.Activities)
	if c.Scraper.ClassLimitPerActivity == 0 {
		c.Scraper.ClassLimitPerActivity = defaultClassLimit
	}
	if c.Scraper.PageScrolls == 0 {
		c.Scraper.PageScrolls = defaultPageScrolls
	}
}

func (c *Config) normalizeRepair() {
	if c.Repair.MaxPasses == 0 {
		c.Repair.MaxPasses = defaultRepairMaxPasses
	}
	cleaned := c.Repair.CorruptedFragments[:0]
	for _, fragment := range c.Repair.CorruptedFragments {
		if trimmed := strings.TrimSpace(fragment); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	c.Repair.CorruptedFragments = cleaned
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
