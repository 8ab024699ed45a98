package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ServiceDateLayout is the wire and storage format of a ServiceDate.
const ServiceDateLayout = "2006-01-02"

// ServiceDate is the calendar day of travel.  It carries no time of day
// and no location, so two values compare equal with == and can be used as
// map keys.  The zero value means "unset".
type ServiceDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewServiceDate builds a ServiceDate, normalising out-of-range values the
// same way time.Date does (e.g. 2025-02-30 becomes 2025-03-02).
func NewServiceDate(year int, month time.Month, day int) ServiceDate {
	return ServiceDateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ServiceDateOf returns the calendar day of t in t's own location.  Callers
// that need "today" in the service time zone should convert t first.
func ServiceDateOf(t time.Time) ServiceDate {
	y, m, d := t.Date()
	return ServiceDate{Year: y, Month: m, Day: d}
}

// ParseServiceDate parses a YYYY-MM-DD string.
func ParseServiceDate(s string) (ServiceDate, error) {
	t, err := time.Parse(ServiceDateLayout, s)
	if err != nil {
		return ServiceDate{}, fmt.Errorf("invalid service date %q: %w", s, err)
	}
	return ServiceDateOf(t), nil
}

// IsZero reports whether the date is unset.
func (d ServiceDate) IsZero() bool { return d == ServiceDate{} }

// Time returns midnight UTC of the date.
func (d ServiceDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d ServiceDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(ServiceDateLayout)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d ServiceDate) Compare(o ServiceDate) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before reports whether d is strictly earlier than o.
func (d ServiceDate) Before(o ServiceDate) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly later than o.
func (d ServiceDate) After(o ServiceDate) bool { return d.Compare(o) > 0 }

// AddDays returns the date n days after d (n may be negative).
func (d ServiceDate) AddDays(n int) ServiceDate {
	return ServiceDateOf(d.Time().AddDate(0, 0, n))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// MarshalJSON encodes the date as "YYYY-MM-DD" (or null when unset).
func (d ServiceDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", "" and null.
func (d *ServiceDate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = ServiceDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = ServiceDate{}
		return nil
	}
	parsed, err := ParseServiceDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer; DATE columns receive "YYYY-MM-DD".
func (d ServiceDate) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner for DATE columns.  With parseTime=true the
// MySQL driver yields time.Time; without it, []byte.
func (d *ServiceDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ServiceDate{}
		return nil
	case time.Time:
		*d = ServiceDateOf(v)
		return nil
	case []byte:
		parsed, err := ParseServiceDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseServiceDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	return fmt.Errorf("cannot scan %T into ServiceDate", src)
}
