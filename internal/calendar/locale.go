package calendar

import (
	"fmt"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// Locale holds the digit and name tables used when formatting dates.
type Locale struct {
	Name            string
	Digits          [10]rune
	GregorianMonths [12]string
	JalaliMonths    [12]string
	// WeekdayNames is indexed by time.Weekday (Sunday = 0).
	WeekdayNames [7]string
}

var latinDigits = [10]rune{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}

var English = Locale{
	Name:   "en",
	Digits: latinDigits,
	GregorianMonths: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	JalaliMonths: [12]string{
		"Farvardin", "Ordibehesht", "Khordad", "Tir", "Mordad", "Shahrivar",
		"Mehr", "Aban", "Azar", "Dey", "Bahman", "Esfand",
	},
	WeekdayNames: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
}

// Persian uses Extended Arabic-Indic digits and the Persian month and
// weekday names.
var Persian = newPersianLocale()

func newPersianLocale() Locale {
	l := Locale{
		Name:   "fa",
		Digits: [10]rune{'۰', '۱', '۲', '۳', '۴', '۵', '۶', '۷', '۸', '۹'},
		GregorianMonths: [12]string{
			"ژانویه", "فوریه", "مارس", "آوریل", "مه", "ژوئن",
			"ژوئیه", "اوت", "سپتامبر", "اکتبر", "نوامبر", "دسامبر",
		},
	}
	for m := 1; m <= 12; m++ {
		l.JalaliMonths[m-1] = ptime.Month(m).String()
	}
	// ptime numbers its week from Shanbeh (Saturday) = 0.
	for w := time.Sunday; w <= time.Saturday; w++ {
		l.WeekdayNames[w] = ptime.Weekday((int(w) + 1) % 7).String()
	}
	return l
}

// LocaleByName returns the built-in locale for "en" or "fa".
func LocaleByName(name string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "en", "english":
		return English, nil
	case "fa", "persian", "farsi":
		return Persian, nil
	}
	return Locale{}, fmt.Errorf("unknown locale %q", name)
}

// MonthName returns the name of month in the given calendar.
func (l Locale) MonthName(s System, month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	if s == Jalali {
		return l.JalaliMonths[month-1]
	}
	return l.GregorianMonths[month-1]
}

func (l Locale) WeekdayName(w time.Weekday) string {
	if w < time.Sunday || w > time.Saturday {
		return ""
	}
	return l.WeekdayNames[w]
}

// LocalizeDigits replaces ASCII digits in s with the locale's digits.
func (l Locale) LocalizeDigits(s string) string {
	if l.Digits == latinDigits || l.Digits == [10]rune{} {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(l.Digits[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// HeaderLabels orders weekday names into grid columns starting at first.
func (l Locale) HeaderLabels(first time.Weekday) [7]string {
	var out [7]string
	for i := range out {
		out[i] = l.WeekdayNames[(int(first)+i)%7]
	}
	return out
}
