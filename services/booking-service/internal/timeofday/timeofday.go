// Package timeofday models local wall-clock times as minutes since midnight.
package timeofday

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Minutes is a wall-clock time expressed as minutes after local midnight.
// Values past MinutesPerDay are allowed for end times that spill over midnight.
type Minutes int

const MinutesPerDay Minutes = 24 * 60

var (
	ErrInvalidFormat = errors.New("invalid time format (HH:MM)")
	ErrStartPastDay  = errors.New("start time must be before 24:00")
)

var hhmm = regexp.MustCompile(`^\d{2}:\d{2}$`)

// Parse accepts any two colon separated integers ("9:5" is 09:05).
// The result must fall inside [00:00, 24:00].
func Parse(s string) (Minutes, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || strings.Contains(ms, ":") {
		return 0, ErrInvalidFormat
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 {
		return 0, ErrInvalidFormat
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidFormat
	}
	v := Minutes(h*60 + m)
	if v > MinutesPerDay {
		return 0, ErrInvalidFormat
	}
	return v, nil
}

// ParseHHMM is Parse restricted to exactly two digits on each side.
func ParseHHMM(s string) (Minutes, error) {
	if !hhmm.MatchString(s) {
		return 0, ErrInvalidFormat
	}
	return Parse(s)
}

// ParseStart is ParseHHMM for the start of an appointment, which must fall
// on the same day.
func ParseStart(s string) (Minutes, error) {
	m, err := ParseHHMM(s)
	if err != nil {
		return 0, err
	}
	if m >= MinutesPerDay {
		return 0, ErrStartPastDay
	}
	return m, nil
}

func MustParse(s string) Minutes {
	m, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("timeofday: %q: %v", s, err))
	}
	return m
}

// String renders HH:MM. Hours are not wrapped at 24, so 25:30 sorts after 23:00.
func (m Minutes) String() string {
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

func (m Minutes) Add(d int) Minutes { return m + Minutes(d) }

func (m Minutes) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Minutes) UnmarshalText(b []byte) error {
	v, err := ParseHHMM(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) share at least one minute.
func Overlaps(aStart, aEnd, bStart, bEnd Minutes) bool {
	return aStart < bEnd && bStart < aEnd
}

// Interval is a half-open range of wall-clock minutes.
type Interval struct {
	Start Minutes
	End   Minutes
}

func (i Interval) Overlaps(o Interval) bool { return Overlaps(i.Start, i.End, o.Start, o.End) }

// Contains reports whether o lies entirely inside i.
func (i Interval) Contains(o Interval) bool { return o.Start >= i.Start && o.End <= i.End }

func (i Interval) Duration() int { return int(i.End - i.Start) }

func (i Interval) String() string { return i.Start.String() + "-" + i.End.String() }
