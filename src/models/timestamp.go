package models

import (
	"fmt"
	"time"
)

// Timestamp is an ISO-8601 string kept verbatim as the backend sent it.
// The backend emits naive UTC values such as 2024-05-01T10:00:00.123456.
type Timestamp string

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Now returns the current time as a UTC RFC 3339 timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().UTC().Format(time.RFC3339Nano))
}

// Time parses the timestamp. Values without a zone are taken as UTC.
func (t Timestamp) Time() (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, string(t)); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", string(t))
}

// Clock formats the timestamp as local hours and minutes, or "" when unparsable.
func (t Timestamp) Clock() string {
	parsed, err := t.Time()
	if err != nil {
		return ""
	}
	return parsed.Local().Format("15:04")
}
