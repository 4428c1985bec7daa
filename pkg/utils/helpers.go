package utils

import (
	"strings"
	"time"
)

// ParseDuration parses a duration string like "500ms" or "2s", returning
// fallback when d is empty, malformed or not positive.
func ParseDuration(d string, fallback time.Duration) time.Duration {
	d = strings.TrimSpace(d)
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}
