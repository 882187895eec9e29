package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	d := Jalali.MustDate(1403, 1, 1)
	tests := []struct {
		pattern string
		loc     Locale
		want    string
	}{
		{"YYYY-MM-DD", English, "1403-01-01"},
		{"YYYY/M/D", English, "1403/1/1"},
		{"dddd D MMMM YYYY", English, "Wednesday 1 Farvardin 1403"},
		{"YYYY/MM/DD", Persian, "۱۴۰۳/۰۱/۰۱"},
		{"[MM]", English, "[01]"},
	}
	for _, tt := range tests {
		if got := Format(d, tt.pattern, tt.loc); got != tt.want {
			t.Errorf("Format(%q, %s) = %q, want %q", tt.pattern, tt.loc.Name, got, tt.want)
		}
	}
}

func TestFormatGregorianMonthName(t *testing.T) {
	d := Gregorian.MustDate(2024, 6, 15)
	if got := Format(d, "D MMMM YYYY, dddd", English); got != "15 June 2024, Saturday" {
		t.Errorf("Format = %q", got)
	}
}

func TestPersianLocaleTables(t *testing.T) {
	for i, name := range Persian.JalaliMonths {
		if name == "" {
			t.Errorf("Jalali month %d has no Persian name", i+1)
		}
	}
	for w, name := range Persian.WeekdayNames {
		if name == "" {
			t.Errorf("weekday %d has no Persian name", w)
		}
	}
	if Persian.WeekdayNames[time.Saturday] == Persian.WeekdayNames[time.Sunday] {
		t.Error("Saturday and Sunday should have different names")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		sys  System
		in   string
		want string
	}{
		{Jalali, "1403-01-01", "1403-01-01"},
		{Jalali, "1403/1/1", "1403-01-01"},
		{Jalali, "۱۴۰۳/۰۳/۲۶", "1403-03-26"},
		{Jalali, "١٤٠٣/٠٣/٢٦", "1403-03-26"},
		{Gregorian, "2024-06-15", "2024-06-15"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.sys, tt.in)
		if err != nil {
			t.Errorf("Parse(%s, %q): %v", tt.sys, tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("Parse(%s, %q) = %s, want %s", tt.sys, tt.in, got, tt.want)
		}
	}

	if _, err := Parse(Jalali, "1402/12/30"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("Parse of 1402/12/30 error = %v, want ErrInvalidDate", err)
	}
	for _, bad := range []string{"1403-01", "1403-xx-01", ""} {
		if _, err := Parse(Jalali, bad); err == nil {
			t.Errorf("Parse(%q) should error", bad)
		}
	}
}

func TestConverterWeekdayLabels(t *testing.T) {
	c, err := NewConverter(Jalali, Persian, time.Saturday)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	c.WeekdayLabels = [7]string{"ش", "ی", "د", "س", "چ", "پ", "ج"}

	if got := c.WeekdayLabel(time.Saturday); got != "ش" {
		t.Errorf("Saturday label = %q", got)
	}
	if got := c.WeekdayLabel(time.Friday); got != "ج" {
		t.Errorf("Friday label = %q", got)
	}
	d := c.ToDisplay(DateOf(2024, time.March, 20))
	if got := c.Format(d, "dddd YYYY/MM/DD"); got != "چ ۱۴۰۳/۰۱/۰۱" {
		t.Errorf("Format = %q", got)
	}
	if got := c.HeaderLabels(); got[0] != "ش" || got[6] != "ج" {
		t.Errorf("HeaderLabels = %v", got)
	}
}

func TestConverterDefaultsToLocaleNames(t *testing.T) {
	c, err := NewConverter(Gregorian, English, time.Monday)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	labels := c.HeaderLabels()
	if labels[0] != "Monday" || labels[6] != "Sunday" {
		t.Errorf("HeaderLabels = %v", labels)
	}
	if _, err := NewConverter(Gregorian, English, time.Weekday(7)); err == nil {
		t.Error("expected error for weekday 7")
	}
}
