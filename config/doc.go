// Package config loads service configuration from defaults, an optional
// YAML file, and environment overrides, applied in that order.
package config
