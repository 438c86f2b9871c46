// Package config loads, normalizes, and validates the TOML configuration
// that drives scanning sources, metadata providers, and rate limiting.
package config
