package handler

import (
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/model"
	"github.com/dukerupert/gahshomar/internal/store"
)

const (
	icsProductID = "-//gahshomar//calendar items//EN"
	icsFloating  = "20060102T150405"
)

// Export serves the items in start..end as an iCalendar feed. It takes the
// same query parameters as List.
func (h *ItemHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sys, err := parseSystemParam(r, "calendar", calendar.Gregorian)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	start, err := parseDate(q.Get("start"), sys)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start: " + err.Error()})
		return
	}
	end, err := parseDate(q.Get("end"), sys)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end: " + err.Error()})
		return
	}

	items, err := h.store.List(r.Context(), start, end, store.Filter{
		PersonRef:  q.Get("person"),
		ProjectRef: q.Get("project"),
	})
	if err != nil {
		writeItemError(w, h.logger, "export items", err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gahshomar.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ICS(items, time.Now()).Serialize()))
}

// ICS builds a VCALENDAR with one VEVENT per item. Item times carry no zone
// and are written as floating times; date-only schedules become all-day
// events with an exclusive end.
func ICS(items []model.CalendarItem, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)

	for _, item := range items {
		if item.Schedule == nil {
			continue
		}
		ev := cal.AddEvent(item.ID)
		ev.SetDtStampTime(stamp.UTC())
		ev.SetSummary(item.Title)
		ev.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(item.Kind)))
		if !item.CreatedAt.IsZero() {
			ev.SetCreatedTime(item.CreatedAt.UTC())
		}
		if !item.UpdatedAt.IsZero() {
			ev.SetModifiedAt(item.UpdatedAt.UTC())
		}

		first, last := item.Schedule.Span()
		switch sch := item.Schedule.(type) {
		case model.PointSchedule:
			if sch.At.HasTime() {
				ev.SetProperty(ical.ComponentPropertyDtStart, sch.At.Time().Format(icsFloating))
			} else {
				setAllDay(ev, first, last)
			}
		case model.RangeSchedule:
			if !sch.Start.HasTime() && !sch.End.HasTime() {
				setAllDay(ev, first, last)
				break
			}
			end := sch.End
			if !end.HasTime() {
				end = end.AddDays(1)
			}
			ev.SetProperty(ical.ComponentPropertyDtStart, sch.Start.Time().Format(icsFloating))
			ev.SetProperty(ical.ComponentPropertyDtEnd, end.Time().Format(icsFloating))
		}

		desc := []string{"Jalali: " + jalaliSpan(first, last)}
		if item.Note != "" {
			desc = append([]string{item.Note}, desc...)
		}
		ev.SetDescription(strings.Join(desc, "\n"))
	}
	return cal
}

// setAllDay writes DATE values; DTEND is the day after the last day.
func setAllDay(ev *ical.VEvent, first, last calendar.Instant) {
	ev.SetAllDayStartAt(first.Time())
	ev.SetAllDayEndAt(last.AddDays(1).Time())
}

func jalaliSpan(first, last calendar.Instant) string {
	from := calendar.Jalali.FromInstant(first).String()
	if first.SameDay(last) {
		return from
	}
	return from + " to " + calendar.Jalali.FromInstant(last).String()
}
