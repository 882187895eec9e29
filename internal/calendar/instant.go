package calendar

import (
	"fmt"
	"strings"
	"time"
)

const (
	dayLayout     = "2006-01-02"
	instantLayout = "2006-01-02T15:04:05.000Z"
)

// Instant is a naive point in time stored as a Gregorian date with an
// optional time of day. Zones are not tracked: the wall-clock fields are the
// value.
type Instant struct {
	t       time.Time
	hasTime bool
	set     bool
}

// DateOf returns a date-only instant. Out-of-range fields normalize the way
// time.Date does.
func DateOf(year int, month time.Month, day int) Instant {
	return Instant{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), set: true}
}

// At returns an instant with a time of day.
func At(year int, month time.Month, day, hour, min, sec int) Instant {
	return Instant{t: time.Date(year, month, day, hour, min, sec, 0, time.UTC), hasTime: true, set: true}
}

// FromTime keeps the wall-clock fields of t and drops its location.
func FromTime(t time.Time) Instant {
	y, m, d := t.Date()
	return Instant{
		t:       time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC).Truncate(time.Millisecond),
		hasTime: true,
		set:     true,
	}
}

// Today returns the date-only instant for now's wall-clock day.
func Today(now time.Time) Instant {
	return FromTime(now).TruncateToDay()
}

// ParseInstant reads the canonical text forms YYYY-MM-DD and
// YYYY-MM-DDTHH:mm:ss.sssZ. RFC 3339 values with an offset and values without
// seconds are accepted; their wall-clock fields are kept as written.
func ParseInstant(s string) (Instant, error) {
	s = strings.TrimSpace(s)
	if len(s) == len(dayLayout) {
		t, err := time.Parse(dayLayout, s)
		if err != nil {
			return Instant{}, fmt.Errorf("parse instant %q: %w", s, err)
		}
		return Instant{t: t, set: true}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return Instant{}, fmt.Errorf("parse instant %q: expected YYYY-MM-DD or YYYY-MM-DDTHH:mm:ss.sssZ", s)
}

func (i Instant) IsZero() bool { return !i.set }
func (i Instant) HasTime() bool { return i.hasTime }

// Time returns the instant as a UTC time.Time.
func (i Instant) Time() time.Time { return i.t }

func (i Instant) Year() int { return i.t.Year() }
func (i Instant) Month() time.Month { return i.t.Month() }
func (i Instant) Day() int { return i.t.Day() }
func (i Instant) Weekday() time.Weekday { return weekdayOfRataDie(i.rataDie()) }

// TruncateToDay drops the time of day.
func (i Instant) TruncateToDay() Instant {
	if i.IsZero() {
		return i
	}
	y, m, d := i.t.Date()
	return DateOf(y, m, d)
}

// AddDays shifts the instant by n calendar days, keeping the time of day.
func (i Instant) AddDays(n int) Instant {
	return Instant{t: i.t.AddDate(0, 0, n), hasTime: i.hasTime, set: i.set}
}

// DayKey is the sortable per-day identifier YYYY-MM-DD.
func (i Instant) DayKey() string {
	return i.t.Format(dayLayout)
}

func (i Instant) Compare(o Instant) int { return i.t.Compare(o.t) }
func (i Instant) Before(o Instant) bool { return i.t.Before(o.t) }
func (i Instant) After(o Instant) bool { return i.t.After(o.t) }
func (i Instant) Equal(o Instant) bool { return i.t.Equal(o.t) && i.hasTime == o.hasTime }

// SameDay reports whether both instants fall on the same calendar day.
func (i Instant) SameDay(o Instant) bool {
	return i.DayKey() == o.DayKey()
}

func (i Instant) String() string {
	if i.hasTime {
		return i.t.Format(instantLayout)
	}
	return i.t.Format(dayLayout)
}

func (i Instant) MarshalText() ([]byte, error) {
	if i.IsZero() {
		return []byte{}, nil
	}
	if y := i.t.Year(); y < MinYear || y > MaxYear {
		return nil, fmt.Errorf("marshal instant: year %d: %w", y, ErrOutOfRange)
	}
	return []byte(i.String()), nil
}

func (i *Instant) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*i = Instant{}
		return nil
	}
	v, err := ParseInstant(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func (i Instant) rataDie() int {
	return Gregorian.rataDie(i.t.Year(), int(i.t.Month()), i.t.Day())
}

func instantFromRataDie(rd int) Instant {
	y, m, d := Gregorian.fromRataDie(rd)
	return DateOf(y, time.Month(m), d)
}

// weekdayOfRataDie maps a day number to time.Weekday; day 1 (0001-01-01)
// is a Monday.
func weekdayOfRataDie(rd int) time.Weekday {
	return time.Weekday(floorMod(rd, 7))
}
