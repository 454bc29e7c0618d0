package config

import "time"

// Duration parses a duration string, falling back when empty or invalid.
// Validation reports bad values; at wiring time the fallback keeps the
// pipeline runnable.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
