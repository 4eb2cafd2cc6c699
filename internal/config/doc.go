// Package config loads and validates application settings from defaults,
// an optional config.yaml and SHAREME_* environment variables.
package config
