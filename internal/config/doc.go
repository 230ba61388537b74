// Package config loads, normalizes, and validates the TOML configuration
// driving vellum runs: journal definitions, browser settings, retry policy,
// and directory layout. Per-journal working directories are derived here so
// that no two journals ever share a download cache.
package config
