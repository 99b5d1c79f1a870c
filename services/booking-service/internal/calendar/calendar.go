// Package calendar handles naive local calendar dates (no time zone attached).
package calendar

import (
	"errors"
	"regexp"
	"time"

	"cloud.google.com/go/civil"
)

var ErrInvalidDate = errors.New("invalid date format (YYYY-MM-DD)")

var yyyymmdd = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate accepts exactly YYYY-MM-DD naming a real calendar day.
func ParseDate(s string) (civil.Date, error) {
	if !yyyymmdd.MatchString(s) {
		return civil.Date{}, ErrInvalidDate
	}
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, ErrInvalidDate
	}
	return d, nil
}

// Weekday returns 0 for Sunday through 6 for Saturday. It is computed on the
// proleptic Gregorian calendar in UTC, so the process time zone cannot shift it.
func Weekday(d civil.Date) int {
	return int(time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday())
}

// Clock answers "what is the local date and wall-clock minute right now" for
// the location the business operates in.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Clock{Now: time.Now, Location: loc}
}

// Today returns the local date and minutes since local midnight.
func (c Clock) Today() (civil.Date, int) {
	now := c.now()
	return civil.DateOf(now), now.Hour()*60 + now.Minute()
}

func (c Clock) Time() time.Time { return c.now() }

func (c Clock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}
