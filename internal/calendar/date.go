package calendar

import (
	"fmt"
	"time"
)

// Date is a day in a display calendar. Weekday is derived from the date and
// is never set independently; build Dates with NewDate or FromInstant.
type Date struct {
	System  System       `json:"calendar"`
	Year    int          `json:"year"`
	Month   int          `json:"month"`
	Day     int          `json:"day"`
	Weekday time.Weekday `json:"weekday"`
}

// DateError reports a (year, month, day) tuple that is not a legal date in
// its calendar, or one outside the supported range.
type DateError struct {
	System System
	Year   int
	Month  int
	Day    int
	Err    error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s date %04d-%02d-%02d: %v", e.System, e.Year, e.Month, e.Day, e.Err)
}

func (e *DateError) Unwrap() error { return e.Err }

// NewDate validates the tuple and derives its weekday.
func (s System) NewDate(year, month, day int) (Date, error) {
	if s != Gregorian && s != Jalali {
		return Date{}, fmt.Errorf("%w: %d", ErrUnknownSystem, int(s))
	}
	if !s.valid(year, month, day) {
		return Date{}, &DateError{System: s, Year: year, Month: month, Day: day, Err: ErrInvalidDate}
	}
	rd := s.rataDie(year, month, day)
	if !inRange(rd) {
		return Date{}, &DateError{System: s, Year: year, Month: month, Day: day, Err: ErrOutOfRange}
	}
	return Date{System: s, Year: year, Month: month, Day: day, Weekday: weekdayOfRataDie(rd)}, nil
}

// MustDate is NewDate for constant inputs; it panics on an invalid tuple.
func (s System) MustDate(year, month, day int) Date {
	d, err := s.NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromInstant converts a canonical instant into this calendar. The time of
// day is ignored.
func (s System) FromInstant(i Instant) Date {
	rd := i.rataDie()
	y, m, d := s.fromRataDie(rd)
	return Date{System: s, Year: y, Month: m, Day: d, Weekday: weekdayOfRataDie(rd)}
}

// ToInstant converts a date in this calendar to its date-only canonical
// instant. The date's own System field must match s.
func (s System) ToInstant(d Date) (Instant, error) {
	if d.System != s {
		return Instant{}, fmt.Errorf("convert %s date with %s calendar: %w", d.System, s, ErrUnknownSystem)
	}
	if !s.valid(d.Year, d.Month, d.Day) {
		return Instant{}, &DateError{System: s, Year: d.Year, Month: d.Month, Day: d.Day, Err: ErrInvalidDate}
	}
	rd := s.rataDie(d.Year, d.Month, d.Day)
	if !inRange(rd) {
		return Instant{}, &DateError{System: s, Year: d.Year, Month: d.Month, Day: d.Day, Err: ErrOutOfRange}
	}
	return instantFromRataDie(rd), nil
}

// Instant converts the date using its own calendar.
func (d Date) Instant() (Instant, error) {
	return d.System.ToInstant(d)
}

// WeekdayOf computes the weekday of a date through the Gregorian day count,
// independent of the date's calendar.
func WeekdayOf(d Date) (time.Weekday, error) {
	i, err := d.Instant()
	if err != nil {
		return 0, err
	}
	return i.Weekday(), nil
}

// FirstOfMonth returns day 1 of the date's month.
func (d Date) FirstOfMonth() (Date, error) {
	return d.System.NewDate(d.Year, d.Month, 1)
}

// ShiftMonth returns day 1 of the month n months away from d's month.
func (d Date) ShiftMonth(n int) (Date, error) {
	idx := d.Year*12 + (d.Month - 1) + n
	return d.System.NewDate(floorDiv(idx, 12), floorMod(idx, 12)+1, 1)
}

// SameMonth reports whether both dates are in the same year and month of the
// same calendar.
func (d Date) SameMonth(o Date) bool {
	return d.System == o.System && d.Year == o.Year && d.Month == o.Month
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func inRange(rd int) bool {
	return rd >= Gregorian.rataDie(MinYear, 1, 1) && rd <= Gregorian.rataDie(MaxYear, 12, 31)
}
