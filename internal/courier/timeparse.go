package courier

import (
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime accepts RFC3339 and zone-less ISO-8601 (read as UTC).
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// eventTime parses a required event timestamp. An absent value falls back
// to the receive time; a present but unparseable one is malformed.
func eventTime(field, s string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		if fallback.IsZero() {
			fallback = time.Now().UTC()
		}
		return fallback, nil
	}
	t, ok := parseTime(s)
	if !ok {
		return time.Time{}, malformed("%s %q is not a timestamp", field, s)
	}
	return t, nil
}

// optionalTime parses an optional timestamp such as an ETA.
func optionalTime(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, ok := parseTime(s)
	if !ok {
		return nil, malformed("%s %q is not a timestamp", field, s)
	}
	return &t, nil
}

// latestIndex returns the position of the newest timestamp. Ties, and
// events without a timestamp, resolve to the later array position.
func latestIndex(times []string) int {
	best := -1
	var bestT time.Time
	for i, s := range times {
		t, _ := parseTime(s)
		if best == -1 || !t.Before(bestT) {
			best, bestT = i, t
		}
	}
	return best
}
