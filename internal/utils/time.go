package utils

import "time"

// NowUTC returns current time in UTC, truncated to seconds to match the
// DATETIME column precision.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
