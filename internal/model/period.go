package model

import (
	"fmt"
	"time"
)

const periodLayout = "2006-01"

// Period is a calendar month, stored as its first day in UTC.
type Period struct {
	start time.Time
}

// PeriodOf truncates t to the first day of its month.
func PeriodOf(t time.Time) Period {
	return Period{start: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

// NewPeriod returns the period for year and month.
func NewPeriod(year int, month time.Month) Period {
	return Period{start: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// ParsePeriod parses a "YYYY-MM" key.
func ParsePeriod(key string) (Period, error) {
	t, err := time.Parse(periodLayout, key)
	if err != nil {
		return Period{}, fmt.Errorf("parsing period %q: %w", key, ErrMalformedInput)
	}
	return PeriodOf(t), nil
}

// Key returns the "YYYY-MM" form.
func (p Period) Key() string {
	return p.start.Format(periodLayout)
}

func (p Period) String() string {
	return p.Key()
}

// Start returns the first instant of the month.
func (p Period) Start() time.Time {
	return p.start
}

// Year returns the calendar year.
func (p Period) Year() int {
	return p.start.Year()
}

// Month returns the calendar month.
func (p Period) Month() time.Month {
	return p.start.Month()
}

// IsZero reports whether p was never set.
func (p Period) IsZero() bool {
	return p.start.IsZero()
}

// Contains reports whether t falls inside the month.
func (p Period) Contains(t time.Time) bool {
	return PeriodOf(t) == p
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	return p.start.Before(o.start)
}

// Next returns the following month.
func (p Period) Next() Period {
	return Period{start: p.start.AddDate(0, 1, 0)}
}

// MarshalText implements encoding.TextMarshaler.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.Key()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
