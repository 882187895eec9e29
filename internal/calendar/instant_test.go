package calendar

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseInstant(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		wantTime bool
	}{
		{"2024-06-15", "2024-06-15", false},
		{"2024-06-15T10:30:00.000Z", "2024-06-15T10:30:00.000Z", true},
		{"2024-06-15T10:30:00Z", "2024-06-15T10:30:00.000Z", true},
		{"2024-06-15T10:30:00+03:30", "2024-06-15T10:30:00.000Z", true},
		{"2024-06-15T10:30", "2024-06-15T10:30:00.000Z", true},
		{" 2024-06-15 ", "2024-06-15", false},
	}
	for _, tt := range tests {
		got, err := ParseInstant(tt.in)
		if err != nil {
			t.Errorf("ParseInstant(%q): %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseInstant(%q) = %s, want %s", tt.in, got, tt.want)
		}
		if got.HasTime() != tt.wantTime {
			t.Errorf("ParseInstant(%q).HasTime() = %v, want %v", tt.in, got.HasTime(), tt.wantTime)
		}
	}

	for _, bad := range []string{"", "2024-13-01", "2024-02-30", "15/06/2024", "yesterday"} {
		if _, err := ParseInstant(bad); err == nil {
			t.Errorf("ParseInstant(%q) should error", bad)
		}
	}
}

func TestInstantOrderingMatchesText(t *testing.T) {
	values := []Instant{
		DateOf(2024, time.June, 14),
		At(2024, time.June, 14, 23, 59, 0),
		DateOf(2024, time.June, 15),
		At(2024, time.June, 15, 0, 0, 1),
		DateOf(2025, time.January, 1),
	}
	for i := 1; i < len(values); i++ {
		a, b := values[i-1], values[i]
		if !(a.String() < b.String()) {
			t.Errorf("text order: %s should sort before %s", a, b)
		}
		if a.Compare(b) >= 0 {
			t.Errorf("Compare(%s, %s) = %d, want < 0", a, b, a.Compare(b))
		}
	}
}

func TestTruncateAndAddDays(t *testing.T) {
	i := At(2024, time.February, 28, 18, 45, 0)
	if got := i.TruncateToDay(); got.String() != "2024-02-28" || got.HasTime() {
		t.Errorf("TruncateToDay = %s", got)
	}
	if got := i.AddDays(1); got.String() != "2024-02-29T18:45:00.000Z" {
		t.Errorf("AddDays(1) = %s", got)
	}
	if got := DateOf(2024, time.December, 31).AddDays(1).DayKey(); got != "2025-01-01" {
		t.Errorf("DayKey = %s, want 2025-01-01", got)
	}
	if !i.SameDay(DateOf(2024, time.February, 28)) {
		t.Error("SameDay should ignore the time of day")
	}
}

func TestZeroInstant(t *testing.T) {
	var zero Instant
	if !zero.IsZero() {
		t.Error("zero value should report IsZero")
	}
	if DateOf(1, time.January, 1).IsZero() {
		t.Error("0001-01-01 is a real date, not the zero instant")
	}
}

func TestInstantJSON(t *testing.T) {
	type payload struct {
		At  Instant  `json:"at"`
		Opt *Instant `json:"opt,omitempty"`
	}
	in := payload{At: At(2024, time.March, 20, 8, 0, 0)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"at":"2024-03-20T08:00:00.000Z"}` {
		t.Errorf("json = %s", data)
	}

	var out payload
	if err := json.Unmarshal([]byte(`{"at":"2024-03-20"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.At.Equal(DateOf(2024, time.March, 20)) {
		t.Errorf("unmarshalled = %s", out.At)
	}
}

func TestFromTimeDropsZone(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+1800)
	i := FromTime(time.Date(2024, 3, 20, 1, 15, 0, 0, tehran))
	if i.String() != "2024-03-20T01:15:00.000Z" {
		t.Errorf("FromTime = %s, want wall clock kept", i)
	}
	if got := Today(time.Date(2024, 3, 20, 23, 0, 0, 0, tehran)); got.String() != "2024-03-20" {
		t.Errorf("Today = %s", got)
	}
}
