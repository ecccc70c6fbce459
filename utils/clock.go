package utils

import (
	"fmt"
	"strings"
	"time"
)

// Clock supplies the current instant
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// naive layouts carry no zone; they are read as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// StoredPrecision is the finest resolution every store keeps (Postgres TIMESTAMPTZ is microseconds)
const StoredPrecision = time.Microsecond

// NormalizeUTC converts t to UTC at StoredPrecision, so a value reads back exactly as written.
// Item schedules, creation times and bid timestamps all go through it.
func NormalizeUTC(t time.Time) time.Time {
	return t.UTC().Truncate(StoredPrecision)
}

// ParseTimestamp parses an RFC 3339 or zone-less timestamp and normalizes it to UTC
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return NormalizeUTC(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
