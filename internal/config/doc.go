// Package config loads, normalizes, and validates the subtidy configuration
// file. Configuration is TOML with environment overrides for credentials;
// all path fields are expanded to absolute paths during load.
package config
