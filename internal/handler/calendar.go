package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/eventindex"
	"github.com/dukerupert/gahshomar/internal/model"
	"github.com/dukerupert/gahshomar/internal/monthgrid"
	"github.com/dukerupert/gahshomar/internal/store"
)

// CalendarHandler serves month grids and date conversion.
type CalendarHandler struct {
	store  store.EventStore
	conv   calendar.Converter
	logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// OnBuild is called with the calendar name of every grid served.
	OnBuild func(system string)
}

func NewCalendarHandler(s store.EventStore, conv calendar.Converter, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{
		store:  s,
		conv:   conv,
		logger: logger.With("component", "calendar"),
		Now:    time.Now,
	}
}

type monthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type dayView struct {
	monthgrid.DayCell
	Label string                `json:"label"`
	Items []*model.CalendarItem `json:"items"`
}

type monthResponse struct {
	Calendar     calendar.System `json:"calendar"`
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Title        string          `json:"title"`
	FirstWeekday time.Weekday    `json:"first_weekday"`
	Headers      [7]string       `json:"headers"`
	Weeks        [][]dayView     `json:"weeks"`
	Prev         monthRef        `json:"prev"`
	Next         monthRef        `json:"next"`
	Today        string          `json:"today,omitempty"`
}

// converter applies the calendar, first_weekday and locale query overrides
// to the configured converter.
func (h *CalendarHandler) converter(r *http.Request) (calendar.Converter, error) {
	conv := h.conv
	sys, err := parseSystemParam(r, "calendar", conv.System)
	if err != nil {
		return conv, err
	}
	conv.System = sys

	if name := r.URL.Query().Get("locale"); name != "" {
		loc, err := calendar.LocaleByName(name)
		if err != nil {
			return conv, err
		}
		conv.Locale = loc
		conv.WeekdayLabels = [7]string{}
	}

	first, err := parseIntParam(r, "first_weekday", int(conv.FirstWeekday))
	if err != nil {
		return conv, err
	}
	if first < 0 || first > 6 {
		return conv, monthgrid.ErrInvalidWeekday
	}
	if wd := time.Weekday(first); wd != conv.FirstWeekday {
		var labels [7]string
		if conv.WeekdayLabels != [7]string{} {
			for i := range labels {
				labels[i] = conv.WeekdayLabel((wd + time.Weekday(i)) % 7)
			}
		}
		conv.FirstWeekday = wd
		conv.WeekdayLabels = labels
	}
	return conv, nil
}

// Month returns the 42-cell grid for a month with the items on each day.
// Without year and month it shows the current month.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	conv, err := h.converter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	now := h.Now()
	current := conv.Today(now)
	year, err := parseIntParam(r, "year", current.Year)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
		return
	}
	month, err := parseIntParam(r, "month", current.Month)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month"})
		return
	}

	builder := monthgrid.NewBuilder(conv)
	builder.Now = h.Now
	grid, err := builder.Month(year, month)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	first, last := grid.Span()
	items, err := h.store.ListInRange(r.Context(), first, last)
	if err != nil {
		writeItemError(w, h.logger, "list items", err)
		return
	}
	index := eventindex.Build(items, grid.Days())

	resp := monthResponse{
		Calendar:     conv.System,
		Year:         grid.Anchor.Year,
		Month:        grid.Anchor.Month,
		Title:        conv.Format(grid.Anchor, "MMMM YYYY"),
		FirstWeekday: grid.FirstWeekday,
		Headers:      conv.HeaderLabels(),
	}
	for _, week := range grid.Weeks() {
		row := make([]dayView, len(week))
		for i, cell := range week {
			on := index.On(cell.Key)
			if on == nil {
				on = []*model.CalendarItem{}
			}
			row[i] = dayView{DayCell: cell, Label: conv.Format(cell.Date, "D"), Items: on}
		}
		resp.Weeks = append(resp.Weeks, row)
	}
	if prev, err := grid.Prev(); err == nil {
		resp.Prev = monthRef{Year: prev.Year, Month: prev.Month}
	}
	if next, err := grid.Next(); err == nil {
		resp.Next = monthRef{Year: next.Year, Month: next.Month}
	}
	if today, ok := grid.Today(); ok {
		resp.Today = today.Key
	}

	if h.OnBuild != nil {
		h.OnBuild(conv.System.String())
	}
	h.logger.Debug("month built", "calendar", conv.System.String(), "year", year, "month", month, "items", len(items))
	writeJSON(w, http.StatusOK, resp)
}

type convertResponse struct {
	Instant   calendar.Instant `json:"instant"`
	Gregorian calendar.Date    `json:"gregorian"`
	Jalali    calendar.Date    `json:"jalali"`
	Formatted string           `json:"formatted"`
}

// Convert reads date in the from calendar (default gregorian) and returns it
// in both calendars, formatted in the to calendar (default jalali).
func (h *CalendarHandler) Convert(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("date")
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date query parameter is required"})
		return
	}
	from, err := parseSystemParam(r, "from", calendar.Gregorian)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	to, err := parseSystemParam(r, "to", calendar.Jalali)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	i, err := parseDate(text, from)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	conv := h.conv
	conv.System = to
	writeJSON(w, http.StatusOK, convertResponse{
		Instant:   i.TruncateToDay(),
		Gregorian: calendar.Gregorian.FromInstant(i),
		Jalali:    calendar.Jalali.FromInstant(i),
		Formatted: conv.FormatInstant(i, "dddd D MMMM YYYY"),
	})
}
