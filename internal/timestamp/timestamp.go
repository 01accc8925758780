// Package timestamp stores timezone-aware instants in timezone-naive UTC
// columns and hands them back to callers as UTC-aware values.
package timestamp

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNaive is returned when a value without zone information is passed for storage.
	ErrNaive = errors.New("timestamp: tzinfo is required")

	// ErrUnsupported is returned for values that are not timestamps at all.
	ErrUnsupported = errors.New("timestamp: unsupported value type")
)

// Layouts accepted when a driver hands back a timestamp as text. Stored values
// are naive, so any offset present is ignored and the wall clock read as UTC.
var storedLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Encode converts v to the value written to a naive timestamp column.
//
// nil passes through. A time.Time is converted to UTC. Text must be RFC 3339
// with an explicit offset; text without one is rejected with ErrNaive.
func Encode(v any) (driver.Value, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return naiveUTC(t), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return naiveUTC(*t), nil
	case UTC:
		if !t.Valid {
			return nil, nil
		}
		return naiveUTC(t.Time), nil
	case string:
		parsed, err := parseAware(t)
		if err != nil {
			return nil, err
		}
		return naiveUTC(parsed), nil
	case []byte:
		parsed, err := parseAware(string(t))
		if err != nil {
			return nil, err
		}
		return naiveUTC(parsed), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

// Decode converts a value read from a naive timestamp column into a UTC-aware
// time. The boolean is false when the column was NULL.
func Decode(v any) (time.Time, bool, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return reattachUTC(t), true, nil
	case string:
		parsed, err := parseStored(t)
		if err != nil {
			return time.Time{}, false, err
		}
		return parsed, true, nil
	case []byte:
		parsed, err := parseStored(string(t))
		if err != nil {
			return time.Time{}, false, err
		}
		return parsed, true, nil
	default:
		return time.Time{}, false, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

// naiveUTC drops the zone marker after converting to UTC. time.Time always
// carries a location, so the "naive" form is the UTC wall clock.
func naiveUTC(t time.Time) time.Time {
	return reattachUTC(t.UTC())
}

// reattachUTC keeps the wall clock and replaces whatever location the driver
// attached with UTC.
func reattachUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func parseAware(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	// Accept the space-separated SQL form as long as it carries an offset.
	if t, err := time.Parse("2006-01-02 15:04:05.999999999Z07:00", s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if _, err := time.Parse(layout, s); err == nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrNaive, s)
		}
	}
	return time.Time{}, fmt.Errorf("timestamp: parse %q: %w", s, err)
}

func parseStored(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range storedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return reattachUTC(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp: unrecognised stored value %q", s)
}
