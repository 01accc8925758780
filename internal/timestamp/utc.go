package timestamp

import (
	"database/sql/driver"
	"time"
)

// UTC is a nullable timestamp column value. It behaves like sql.NullTime but
// always writes naive UTC and always reads back an instant located in UTC.
type UTC struct {
	Time  time.Time
	Valid bool
}

// From wraps t as a valid value.
func From(t time.Time) UTC {
	return UTC{Time: t.UTC(), Valid: true}
}

// Parse builds a value from RFC 3339 text. Text without an offset fails with ErrNaive.
func Parse(s string) (UTC, error) {
	t, err := parseAware(s)
	if err != nil {
		return UTC{}, err
	}
	return From(t), nil
}

// Value implements driver.Valuer.
func (u UTC) Value() (driver.Value, error) {
	return Encode(u)
}

// Scan implements sql.Scanner.
func (u *UTC) Scan(src any) error {
	t, ok, err := Decode(src)
	if err != nil {
		return err
	}
	u.Time, u.Valid = t, ok
	return nil
}

// Equal reports whether both values are NULL or hold the same instant.
func (u UTC) Equal(other UTC) bool {
	if u.Valid != other.Valid {
		return false
	}
	return !u.Valid || u.Time.Equal(other.Time)
}
