package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 calendar date layout used on the wire.
const DateFormat = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar day with no time component, held at midnight UTC.
type Date struct {
	time.Time
}

// NewDate returns a normalized Date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts "2006-01-02" and, for older stored values, full RFC3339 instants.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateFormat, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t.UTC()), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}

// SameDay reports whether both dates denote the same calendar day.
func (d Date) SameDay(x Date) bool {
	return d.Year() == x.Year() && d.Month() == x.Month() && d.Day() == x.Day()
}

// DaysInMonth returns the number of days of d's month.
func (d Date) DaysInMonth() int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON reads anything that is not a parseable date string as the
// zero date, like Amount does for amounts. Callers detect it with IsZero.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
	}
	return nil
}
