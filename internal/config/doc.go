// Package config loads, normalizes, and validates Riptide configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RIPTIDE_NTFY_TOPIC. The Config type centralizes every knob the daemon and
// CLI need, from drive device and extraction timeouts to registry and
// metadata endpoints.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
