package clock

import (
	"fmt"
	"time"
)

// Clock is the time source for everything that compares against "today".
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func System() Clock { return systemClock{} }

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Fixed always returns t.
func Fixed(t time.Time) Clock { return Func(func() time.Time { return t }) }

// Calendar turns instants into calendar dates of one reference timezone.
// A date is a time.Time at 00:00 UTC carrying the local year/month/day,
// which is also how pgx hands back DATE columns.
type Calendar struct {
	Clock    Clock
	Location *time.Location
}

func NewCalendar(c Clock, tz string) (Calendar, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Calendar{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return Calendar{Clock: c, Location: loc}, nil
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Calendar) Now() time.Time { return c.Clock.Now().In(c.loc()) }

// In converts an instant to the reference timezone.
func (c Calendar) In(t time.Time) time.Time { return t.In(c.loc()) }

// Today is the current calendar date in the reference timezone.
func (c Calendar) Today() time.Time { return c.DateOf(c.Clock.Now()) }

func (c Calendar) DateOf(t time.Time) time.Time {
	y, m, d := t.In(c.loc()).Date()
	return Date(y, m, d)
}

// StartOf is the instant the given date begins in the reference timezone.
func (c Calendar) StartOf(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
}

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func DaysIn(year int, month time.Month) int {
	return Date(year, month+1, 0).Day()
}

// MonthRange returns the first and last date of the month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	return Date(year, month, 1), Date(year, month, DaysIn(year, month))
}

func AddMonths(date time.Time, n int) time.Time { return date.AddDate(0, n, 0) }

func AddDays(date time.Time, n int) time.Time { return date.AddDate(0, 0, n) }

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be YYYY-MM: %w", err)
	}
	return t.Year(), t.Month(), nil
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}
