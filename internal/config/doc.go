// Package config loads the optional JSON service configuration. The schema
// uses pointer fields so a file only needs to name the values it overrides.
package config
