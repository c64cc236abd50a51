package scraper

import (
	"fmt"
	"time"
)

// timestampLayouts are tried in order when parsing user-supplied bounds
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp or a plain calendar date.
// A bare date parses to that date's midnight, UTC. As an inclusive upper
// bound that excludes the rest of the day; callers wanting end-of-day must
// supply an explicit time.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q (want ISO-8601 or YYYY-MM-DD)", value)
}
