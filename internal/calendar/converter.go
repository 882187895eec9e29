package calendar

import (
	"fmt"
	"time"
)

// Converter bundles a display calendar with the host's locale settings. It
// holds no mutable state and is safe for concurrent use.
type Converter struct {
	System       System
	Locale       Locale
	FirstWeekday time.Weekday
	// WeekdayLabels are in column order starting at FirstWeekday. When empty,
	// Locale.WeekdayNames is used.
	WeekdayLabels [7]string
}

// NewConverter returns a Converter that labels weekdays from the locale.
func NewConverter(s System, loc Locale, firstWeekday time.Weekday) (Converter, error) {
	if s != Gregorian && s != Jalali {
		return Converter{}, fmt.Errorf("%w: %d", ErrUnknownSystem, int(s))
	}
	if firstWeekday < time.Sunday || firstWeekday > time.Saturday {
		return Converter{}, fmt.Errorf("first weekday %d out of range 0..6", firstWeekday)
	}
	return Converter{System: s, Locale: loc, FirstWeekday: firstWeekday}, nil
}

// ToDisplay converts a canonical instant into the display calendar.
func (c Converter) ToDisplay(i Instant) Date {
	return c.System.FromInstant(i)
}

// FromDisplay converts a date back to its canonical instant using the
// date's own calendar.
func (c Converter) FromDisplay(d Date) (Instant, error) {
	return d.System.ToInstant(d)
}

// Format renders d with the configured locale and weekday labels.
func (c Converter) Format(d Date, pattern string) string {
	return format(d, pattern, c.Locale, c.WeekdayLabel)
}

// FormatInstant converts i to the display calendar and formats it.
func (c Converter) FormatInstant(i Instant, pattern string) string {
	return c.Format(c.ToDisplay(i), pattern)
}

// Parse reads a date in the display calendar.
func (c Converter) Parse(text string) (Date, error) {
	return Parse(c.System, text)
}

// Today returns now's day in the display calendar.
func (c Converter) Today(now time.Time) Date {
	return c.ToDisplay(Today(now))
}

// WeekdayLabel returns the configured label for w.
func (c Converter) WeekdayLabel(w time.Weekday) string {
	if c.WeekdayLabels == [7]string{} {
		return c.Locale.WeekdayName(w)
	}
	return c.WeekdayLabels[floorMod(int(w)-int(c.FirstWeekday), 7)]
}

// HeaderLabels returns the seven column labels of a month grid.
func (c Converter) HeaderLabels() [7]string {
	if c.WeekdayLabels == [7]string{} {
		return c.Locale.HeaderLabels(c.FirstWeekday)
	}
	return c.WeekdayLabels
}
