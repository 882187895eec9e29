package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/gahshomar/internal/calendar"
)

type Kind string

const (
	KindMeeting    Kind = "meeting"
	KindAssignment Kind = "assignment"
	KindDeadline   Kind = "deadline"
	KindEvent      Kind = "event"
)

// Kinds lists every valid Kind in display order.
var Kinds = []Kind{KindMeeting, KindAssignment, KindDeadline, KindEvent}

func (k Kind) Valid() bool {
	switch k {
	case KindMeeting, KindAssignment, KindDeadline, KindEvent:
		return true
	}
	return false
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return k, nil
}

// Schedule is either a PointSchedule or a RangeSchedule.
type Schedule interface {
	// Span returns the first and last day the schedule touches.
	Span() (first, last calendar.Instant)
	isSchedule()
}

// PointSchedule places an item at a single instant.
type PointSchedule struct {
	At calendar.Instant
}

// RangeSchedule covers Start through End inclusive.
type RangeSchedule struct {
	Start calendar.Instant
	End   calendar.Instant
}

func (p PointSchedule) Span() (calendar.Instant, calendar.Instant) {
	d := p.At.TruncateToDay()
	return d, d
}

func (r RangeSchedule) Span() (calendar.Instant, calendar.Instant) {
	return r.Start.TruncateToDay(), r.End.TruncateToDay()
}

func (PointSchedule) isSchedule() {}
func (RangeSchedule) isSchedule() {}

var ErrInvertedRange = errors.New("range end is before start")

// Validate checks the range ordering invariant.
func (r RangeSchedule) Validate() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: %s < %s", ErrInvertedRange, r.End, r.Start)
	}
	return nil
}

type CalendarItem struct {
	ID         string
	Kind       Kind
	Title      string
	ProjectRef string
	PersonRef  string
	Stage      string
	Schedule   Schedule
	Note       string
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsRange reports whether the item is scheduled as a range.
func (c CalendarItem) IsRange() bool {
	_, ok := c.Schedule.(RangeSchedule)
	return ok
}

// ItemPatch carries the fields of an update. Nil pointers and a nil Schedule
// leave the stored value unchanged. A non-zero ExpectedVersion must match the
// stored version or the update fails with a conflict.
type ItemPatch struct {
	Kind            *Kind
	Title           *string
	ProjectRef      *string
	PersonRef       *string
	Stage           *string
	Schedule        Schedule
	Note            *string
	ExpectedVersion int64
}

// Apply returns a copy of item with the patch applied. ID, version and
// timestamps are left to the store.
func (p ItemPatch) Apply(item CalendarItem) CalendarItem {
	if p.Kind != nil {
		item.Kind = *p.Kind
	}
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.ProjectRef != nil {
		item.ProjectRef = *p.ProjectRef
	}
	if p.PersonRef != nil {
		item.PersonRef = *p.PersonRef
	}
	if p.Stage != nil {
		item.Stage = *p.Stage
	}
	if p.Schedule != nil {
		item.Schedule = p.Schedule
	}
	if p.Note != nil {
		item.Note = *p.Note
	}
	return item
}

type calendarItemJSON struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	Title      string            `json:"title"`
	ProjectRef string            `json:"project_ref,omitempty"`
	PersonRef  string            `json:"person_ref,omitempty"`
	Stage      string            `json:"stage,omitempty"`
	Instant    *calendar.Instant `json:"instant,omitempty"`
	Start      *calendar.Instant `json:"start,omitempty"`
	End        *calendar.Instant `json:"end,omitempty"`
	Note       string            `json:"note,omitempty"`
	Version    int64             `json:"version"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// MarshalJSON writes "instant" for point items and "start"/"end" for range
// items; never both.
func (c CalendarItem) MarshalJSON() ([]byte, error) {
	out := calendarItemJSON{
		ID:         c.ID,
		Kind:       c.Kind,
		Title:      c.Title,
		ProjectRef: c.ProjectRef,
		PersonRef:  c.PersonRef,
		Stage:      c.Stage,
		Note:       c.Note,
		Version:    c.Version,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	switch s := c.Schedule.(type) {
	case PointSchedule:
		out.Instant = &s.At
	case RangeSchedule:
		out.Start, out.End = &s.Start, &s.End
	}
	return json.Marshal(out)
}

func (c *CalendarItem) UnmarshalJSON(data []byte) error {
	var in calendarItemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = CalendarItem{
		ID:         in.ID,
		Kind:       in.Kind,
		Title:      in.Title,
		ProjectRef: in.ProjectRef,
		PersonRef:  in.PersonRef,
		Stage:      in.Stage,
		Note:       in.Note,
		Version:    in.Version,
		CreatedAt:  in.CreatedAt,
		UpdatedAt:  in.UpdatedAt,
	}
	switch {
	case in.Instant != nil && (in.Start != nil || in.End != nil):
		return errors.New("calendar item has both instant and range")
	case in.Instant != nil:
		c.Schedule = PointSchedule{At: *in.Instant}
	case in.Start != nil && in.End != nil:
		c.Schedule = RangeSchedule{Start: *in.Start, End: *in.End}
	case in.Start != nil || in.End != nil:
		return errors.New("calendar item range needs both start and end")
	}
	return nil
}
