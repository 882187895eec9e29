package eventindex

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/model"
	"github.com/dukerupert/gahshomar/internal/monthgrid"
)

func point(id string, at calendar.Instant) model.CalendarItem {
	return model.CalendarItem{ID: id, Kind: model.KindMeeting, Title: id, Schedule: model.PointSchedule{At: at}}
}

func span(id string, start, end calendar.Instant) model.CalendarItem {
	return model.CalendarItem{ID: id, Kind: model.KindEvent, Title: id, Schedule: model.RangeSchedule{Start: start, End: end}}
}

func juneGrid(t *testing.T) []monthgrid.DayCell {
	t.Helper()
	g, err := monthgrid.Build(calendar.Gregorian.MustDate(2024, 6, 1), time.Saturday, calendar.Instant{})
	if err != nil {
		t.Fatalf("Build grid: %v", err)
	}
	return g.Days()
}

// naive is the O(days x items) definition the index must agree with.
func naive(items []model.CalendarItem, days []monthgrid.DayCell) Index {
	idx := make(Index)
	for _, d := range days {
		for i := range items {
			item := &items[i]
			switch s := item.Schedule.(type) {
			case model.PointSchedule:
				if s.At.TruncateToDay().Equal(d.Instant) {
					idx[d.Key] = append(idx[d.Key], item)
				}
			case model.RangeSchedule:
				if !d.Instant.Before(s.Start.TruncateToDay()) && !d.Instant.After(s.End.TruncateToDay()) {
					idx[d.Key] = append(idx[d.Key], item)
				}
			}
		}
	}
	return idx
}

func ids(items []*model.CalendarItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestPointAndRangeOnSameDay(t *testing.T) {
	items := []model.CalendarItem{
		point("standup", calendar.DateOf(2024, time.June, 15)),
		span("offsite", calendar.DateOf(2024, time.June, 14), calendar.DateOf(2024, time.June, 16)),
	}
	idx := Build(items, juneGrid(t))

	got := ids(idx.On("2024-06-15"))
	if fmt.Sprint(got) != "[standup offsite]" {
		t.Errorf("2024-06-15 = %v, want [standup offsite]", got)
	}
	for i := 0; i < 5; i++ {
		again := ids(Build(items, juneGrid(t)).On("2024-06-15"))
		if fmt.Sprint(again) != fmt.Sprint(got) {
			t.Fatalf("rebuild changed order: %v vs %v", again, got)
		}
	}
	if idx.On("2024-06-15")[0] != &items[0] {
		t.Error("index should point into the input slice")
	}
}

func TestRangeInclusion(t *testing.T) {
	start := calendar.At(2024, time.June, 10, 14, 0, 0)
	end := calendar.At(2024, time.June, 13, 9, 30, 0)
	items := []model.CalendarItem{span("trip", start, end)}
	idx := Build(items, juneGrid(t))

	for _, key := range []string{"2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13"} {
		if len(idx.On(key)) != 1 {
			t.Errorf("%s should include the range", key)
		}
	}
	for _, key := range []string{"2024-06-09", "2024-06-14"} {
		if len(idx.On(key)) != 0 {
			t.Errorf("%s should not include the range", key)
		}
	}
	if idx.Count() != 4 {
		t.Errorf("Count = %d, want 4", idx.Count())
	}
}

func TestItemsOutsideGridAreDropped(t *testing.T) {
	items := []model.CalendarItem{
		point("early", calendar.DateOf(2024, time.January, 1)),
		span("spanning", calendar.DateOf(2024, time.April, 1), calendar.DateOf(2024, time.December, 1)),
		{ID: "unscheduled", Title: "draft"},
	}
	days := juneGrid(t)
	idx := Build(items, days)
	if len(idx.On("2024-01-01")) != 0 {
		t.Error("day outside the grid should have no entry")
	}
	if idx.Count() != len(days) {
		t.Errorf("Count = %d, want one per visible day (%d)", idx.Count(), len(days))
	}
	if got := idx.Keys(); got[0] != days[0].Key || got[len(got)-1] != days[len(days)-1].Key {
		t.Errorf("Keys span %s..%s", got[0], got[len(got)-1])
	}
}

func TestMatchesNaiveIndex(t *testing.T) {
	days := juneGrid(t)
	rng := rand.New(rand.NewSource(7))
	base := calendar.DateOf(2024, time.May, 20)

	var items []model.CalendarItem
	for i := 0; i < 200; i++ {
		startOff := rng.Intn(60)
		at := base.AddDays(startOff)
		if rng.Intn(2) == 0 {
			at = calendar.At(at.Year(), at.Month(), at.Day(), rng.Intn(24), rng.Intn(60), 0)
		}
		id := fmt.Sprintf("item-%03d", i)
		if rng.Intn(3) == 0 {
			items = append(items, point(id, at))
			continue
		}
		items = append(items, span(id, at, at.AddDays(rng.Intn(10))))
	}

	got := Build(items, days)
	want := naive(items, days)
	if got.Count() != want.Count() {
		t.Fatalf("Count = %d, want %d", got.Count(), want.Count())
	}
	for _, d := range days {
		g, w := ids(got.On(d.Key)), ids(want.On(d.Key))
		if fmt.Sprint(g) != fmt.Sprint(w) {
			t.Errorf("%s: got %v, want %v", d.Key, g, w)
		}
	}
}

func TestBuildKeysIgnoresDuplicates(t *testing.T) {
	items := []model.CalendarItem{point("a", calendar.DateOf(2024, time.June, 15))}
	idx := BuildKeys(items, []string{"2024-06-15", "2024-06-14", "2024-06-15"})
	if len(idx.On("2024-06-15")) != 1 {
		t.Errorf("got %d entries, want 1", len(idx.On("2024-06-15")))
	}
}
