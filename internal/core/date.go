package core

import (
	"errors"
	"time"
)

// Date is a civil date with no time component. The wire and storage format
// is ISO "2006-01-02".
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its civil date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO "yyyy-MM-dd" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

var ErrInvalidDate = errors.New("invalid date")

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the ISO form, e.g. "2024-05-31".
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthKey returns the "2006-01" key used for budgets and rollover markers.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// MonthLabel returns the human form used in rollover goal titles,
// e.g. "May 2024".
func (d Date) MonthLabel() string {
	return d.Format("January 2006")
}

// SameMonth reports whether two dates fall in the same calendar month.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// FirstOfMonth returns the first day of the date's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// LastOfMonth returns the last day of the date's month.
func (d Date) LastOfMonth() Date {
	return NewDate(d.Year(), int(d.Month())+1, 0)
}

// PrevMonth returns the same day-of-month one month earlier, clamped by
// time.Date normalization the way the rollover needs it: callers only use
// the month, never the day.
func (d Date) PrevMonth() Date {
	return NewDate(d.Year(), int(d.Month())-1, 1)
}

// WeekRange returns the Monday and Sunday bounding the given ISO week.
func WeekRange(year, week int) (Date, Date) {
	// Jan 4 is always inside ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	monday := jan4.AddDate(0, 0, -(weekday-1)+(week-1)*7)
	start := DateOf(monday)
	end := DateOf(monday.AddDate(0, 0, 6))
	return start, end
}
