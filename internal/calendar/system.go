// Package calendar converts between canonical Gregorian instants and the
// Gregorian or Jalali (Persian solar) display calendars.
package calendar

import (
	"errors"
	"fmt"
	"strings"
)

// System identifies a calendar system used for display.
type System int

const (
	Gregorian System = iota
	Jalali
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrOutOfRange    = errors.New("date out of supported range")
	ErrUnknownSystem = errors.New("unknown calendar system")
)

// Supported Gregorian years. Every day in this range round-trips through
// both display calendars.
const (
	MinYear = 1
	MaxYear = 9999
)

// jalaliEpoch is the rata die of 1 Farvardin 1 under the 33-year arithmetic
// rule, fixed so that 1 Farvardin 1403 falls on 2024-03-20.
const jalaliEpoch = 226895

// jalaliLeapPrefix[r] counts leap residues in 1..r of a 33-year cycle.
var jalaliLeapPrefix = func() [34]int {
	var p [34]int
	for r := 1; r < len(p); r++ {
		p[r] = p[r-1]
		if jalaliLeapResidue(r) {
			p[r]++
		}
	}
	return p
}()

var gregorianMonthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func (s System) String() string {
	switch s {
	case Gregorian:
		return "gregorian"
	case Jalali:
		return "jalali"
	}
	return fmt.Sprintf("System(%d)", int(s))
}

// ParseSystem accepts "gregorian" or "jalali" (and the aliases "persian",
// "shamsi", "solar"), case-insensitive.
func ParseSystem(s string) (System, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gregorian", "miladi":
		return Gregorian, nil
	case "jalali", "persian", "shamsi", "solar":
		return Jalali, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSystem, s)
}

func (s System) MarshalText() ([]byte, error) {
	if s != Gregorian && s != Jalali {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSystem, int(s))
	}
	return []byte(s.String()), nil
}

func (s *System) UnmarshalText(b []byte) error {
	v, err := ParseSystem(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// IsLeapYear reports whether year is a leap year in the system. Jalali years
// follow the 33-year arithmetic rule: a year is leap when its position in the
// cycle is one of 1, 5, 9, 13, 17, 22, 26 or 30.
func (s System) IsLeapYear(year int) bool {
	if s == Jalali {
		return jalaliLeapResidue(floorMod(year, 33))
	}
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func jalaliLeapResidue(r int) bool {
	return floorMod(25*r+11, 33) < 8
}

// DaysInMonth returns the length of month in year, or 0 for a month outside 1..12.
func (s System) DaysInMonth(year, month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	if s == Jalali {
		switch {
		case month <= 6:
			return 31
		case month <= 11:
			return 30
		case s.IsLeapYear(year):
			return 30
		default:
			return 29
		}
	}
	if month == 2 && s.IsLeapYear(year) {
		return 29
	}
	return gregorianMonthDays[month-1]
}

func (s System) valid(year, month, day int) bool {
	return day >= 1 && day <= s.DaysInMonth(year, month)
}

// rataDie returns the day number of a date, counting 0001-01-01 (Gregorian)
// as day 1.
func (s System) rataDie(year, month, day int) int {
	if s == Jalali {
		var doy int
		if month <= 7 {
			doy = 31*(month-1) + day
		} else {
			doy = 30*(month-1) + 6 + day
		}
		q, r := floorDiv(year-1, 33), floorMod(year-1, 33)
		return jalaliEpoch - 1 + 365*(year-1) + 8*q + jalaliLeapPrefix[r] + doy
	}
	y := year - 1
	rd := 365*y + floorDiv(y, 4) - floorDiv(y, 100) + floorDiv(y, 400) + (367*month-362)/12 + day
	switch {
	case month <= 2:
	case s.IsLeapYear(year):
		rd--
	default:
		rd -= 2
	}
	return rd
}

func (s System) fromRataDie(rd int) (year, month, day int) {
	if s == Jalali {
		year = floorDiv(33*(rd-jalaliEpoch), 12053) + 1
		for s.rataDie(year+1, 1, 1) <= rd {
			year++
		}
		for s.rataDie(year, 1, 1) > rd {
			year--
		}
		doy := rd - s.rataDie(year, 1, 1) + 1
		if doy <= 186 {
			return year, (doy-1)/31 + 1, (doy-1)%31 + 1
		}
		return year, (doy-187)/30 + 7, (doy-187)%30 + 1
	}
	year = floorDiv(400*rd, 146097) + 1
	for s.rataDie(year, 1, 1) > rd {
		year--
	}
	for s.rataDie(year+1, 1, 1) <= rd {
		year++
	}
	month = 1
	for month < 12 && s.rataDie(year, month+1, 1) <= rd {
		month++
	}
	return year, month, rd - s.rataDie(year, month, 1) + 1
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - b*floorDiv(a, b)
}
