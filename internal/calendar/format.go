package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Pattern tokens, longest first so "MMMM" wins over "MM".
var formatTokens = []string{"YYYY", "MMMM", "dddd", "MM", "DD", "M", "D"}

// Format renders d with a small pattern vocabulary:
//
//	YYYY  four-digit year
//	MM    zero-padded month, M unpadded
//	DD    zero-padded day, D unpadded
//	MMMM  month name
//	dddd  weekday name
//
// Any other rune is copied as is. Numerals use the locale's digits.
func Format(d Date, pattern string, loc Locale) string {
	return format(d, pattern, loc, loc.WeekdayName)
}

func format(d Date, pattern string, loc Locale, weekdayName func(time.Weekday) string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		tok := matchToken(pattern[i:])
		if tok == "" {
			b.WriteByte(pattern[i])
			i++
			continue
		}
		switch tok {
		case "YYYY":
			b.WriteString(loc.LocalizeDigits(fmt.Sprintf("%04d", d.Year)))
		case "MM":
			b.WriteString(loc.LocalizeDigits(fmt.Sprintf("%02d", d.Month)))
		case "M":
			b.WriteString(loc.LocalizeDigits(strconv.Itoa(d.Month)))
		case "DD":
			b.WriteString(loc.LocalizeDigits(fmt.Sprintf("%02d", d.Day)))
		case "D":
			b.WriteString(loc.LocalizeDigits(strconv.Itoa(d.Day)))
		case "MMMM":
			b.WriteString(loc.MonthName(d.System, d.Month))
		case "dddd":
			b.WriteString(weekdayName(d.Weekday))
		}
		i += len(tok)
	}
	return b.String()
}

func matchToken(s string) string {
	for _, tok := range formatTokens {
		if strings.HasPrefix(s, tok) {
			return tok
		}
	}
	return ""
}

// Parse reads a date written as Y-M-D or Y/M/D in calendar s. Persian and
// Arabic-Indic digits are accepted. The tuple is validated, never clamped.
func Parse(s System, text string) (Date, error) {
	norm := NormalizeDigits(strings.TrimSpace(text))
	parts := strings.FieldsFunc(norm, func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("parse %s date %q: expected year-month-day", s, text)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("parse %s date %q: %w", s, text, err)
		}
		nums[i] = n
	}
	return s.NewDate(nums[0], nums[1], nums[2])
}

// NormalizeDigits maps Extended Arabic-Indic (Persian) and Arabic-Indic
// digits to ASCII.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return r
	}, s)
}
