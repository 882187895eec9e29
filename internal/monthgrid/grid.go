package monthgrid

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/gahshomar/internal/calendar"
)

// Size is the number of cells in every grid: six weeks of seven days.
const Size = 42

var ErrInvalidWeekday = errors.New("first weekday must be in 0..6")

// DayCell is one day of a month grid.
type DayCell struct {
	Date           calendar.Date    `json:"date"`
	Instant        calendar.Instant `json:"instant"`
	Key            string           `json:"key"`
	InCurrentMonth bool             `json:"in_current_month"`
	IsToday        bool             `json:"is_today"`
}

// Grid is a fixed 6x7 layout of a display-calendar month.
type Grid struct {
	Anchor       calendar.Date
	FirstWeekday time.Weekday
	Cells        [Size]DayCell
}

// Build lays out the month containing anchor. Cells start on firstWeekday of
// the week holding day 1 and run for 42 consecutive days, so short months are
// padded with days of the neighbouring months. today is compared at day
// granularity; a zero today marks no cell.
func Build(anchor calendar.Date, firstWeekday time.Weekday, today calendar.Instant) (*Grid, error) {
	if firstWeekday < time.Sunday || firstWeekday > time.Saturday {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWeekday, int(firstWeekday))
	}
	if _, err := anchor.System.NewDate(anchor.Year, anchor.Month, anchor.Day); err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}
	first, err := anchor.FirstOfMonth()
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}
	start, err := first.Instant()
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}
	offset := (int(first.Weekday) - int(firstWeekday) + 7) % 7
	start = start.AddDays(-offset)

	todayDay := today.TruncateToDay()
	g := &Grid{Anchor: first, FirstWeekday: firstWeekday}
	for i := range g.Cells {
		day := start.AddDays(i)
		date := anchor.System.FromInstant(day)
		g.Cells[i] = DayCell{
			Date:           date,
			Instant:        day,
			Key:            day.DayKey(),
			InCurrentMonth: date.SameMonth(first),
			IsToday:        !todayDay.IsZero() && day.Equal(todayDay),
		}
	}
	return g, nil
}

// Days returns the cells as a slice, in chronological order.
func (g *Grid) Days() []DayCell {
	return g.Cells[:]
}

// Weeks returns the grid as six rows of seven cells.
func (g *Grid) Weeks() [][]DayCell {
	weeks := make([][]DayCell, 0, Size/7)
	for i := 0; i < Size; i += 7 {
		weeks = append(weeks, g.Cells[i:i+7])
	}
	return weeks
}

// Span returns the first and last day shown.
func (g *Grid) Span() (first, last calendar.Instant) {
	return g.Cells[0].Instant, g.Cells[Size-1].Instant
}

// MonthDays returns only the cells that belong to the anchor month.
func (g *Grid) MonthDays() []DayCell {
	var days []DayCell
	for _, c := range g.Cells {
		if c.InCurrentMonth {
			days = append(days, c)
		}
	}
	return days
}

// Prev returns day 1 of the previous month, for navigation.
func (g *Grid) Prev() (calendar.Date, error) {
	return g.Anchor.ShiftMonth(-1)
}

// Next returns day 1 of the following month.
func (g *Grid) Next() (calendar.Date, error) {
	return g.Anchor.ShiftMonth(1)
}

// Today returns the cell marked as today, if the grid shows it.
func (g *Grid) Today() (DayCell, bool) {
	for _, c := range g.Cells {
		if c.IsToday {
			return c, true
		}
	}
	return DayCell{}, false
}
