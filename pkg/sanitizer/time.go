package sanitizer

import "time"

// NormalizeMinute converts t to UTC and drops seconds and below. Zero stays zero.
func NormalizeMinute(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Minute)
}
