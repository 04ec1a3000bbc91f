package models

import (
	"strings"
	"time"
)

// DateLayout is the single calendar-date representation used in every store.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Date is a calendar day without time-of-day or zone.
type Date struct {
	t time.Time
}

// NewDate returns the calendar day t falls on in its own location.
func NewDate(t time.Time) Date {
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// Today returns the current local calendar day.
func Today() Date {
	return NewDate(time.Now())
}

// ParseDate coerces s into a Date. Unparseable or empty input yields nil.
func ParseDate(s string) *Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := NewDate(t)
			return &d
		}
	}
	return nil
}

// Time returns the day as UTC midnight.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format(DateLayout) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// Ptr returns a pointer to a copy of d.
func (d Date) Ptr() *Date { return &d }
