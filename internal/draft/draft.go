// Package draft implements the create/edit lifecycle of a calendar item.
//
// A Draft starts Empty (new item) or copied from a stored item (edit). Every
// setter moves it through Editing and re-runs validation, leaving it Valid or
// Invalid. Commit hands a valid draft to the store and ends in Committed;
// Discard ends in Discarded without touching the store. A Draft has a single
// writer and must not be mutated concurrently.
package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/model"
	"github.com/dukerupert/gahshomar/internal/store"
)

type State int

const (
	StateEmpty State = iota
	StateEditing
	StateValid
	StateInvalid
	StateCommitted
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	case StateCommitted:
		return "committed"
	case StateDiscarded:
		return "discarded"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateDiscarded
}

type Mode int

const (
	ModePoint Mode = iota
	ModeRange
)

func (m Mode) String() string {
	if m == ModeRange {
		return "range"
	}
	return "point"
}

// Commit outcomes passed to the commit hook.
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeFailed   = "failed"
)

type Option func(*Draft)

func WithLogger(l *slog.Logger) Option {
	return func(d *Draft) { d.logger = l }
}

// WithCommitHook registers fn to be called with the outcome of every Commit.
func WithCommitHook(fn func(outcome string)) Option {
	return func(d *Draft) { d.onCommit = fn }
}

type Draft struct {
	store    store.EventStore
	logger   *slog.Logger
	onCommit func(string)

	original *model.CalendarItem
	state    State
	mode     Mode
	lastErr  *ValidationError

	kind       model.Kind
	title      string
	note       string
	projectRef string
	personRef  string
	stage      string
	instant    calendar.Instant
	start      calendar.Instant
	end        calendar.Instant

	committed *model.CalendarItem
}

// New starts an empty point-mode draft for a new item.
func New(s store.EventStore, opts ...Option) *Draft {
	d := &Draft{store: s, logger: slog.Default(), state: StateEmpty, mode: ModePoint}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Edit starts a draft from a stored item and validates it immediately. The
// item's Version is sent as the expected version on commit.
func Edit(s store.EventStore, item model.CalendarItem, opts ...Option) *Draft {
	d := New(s, opts...)
	orig := item
	d.original = &orig
	d.kind = item.Kind
	d.title = item.Title
	d.note = item.Note
	d.projectRef = item.ProjectRef
	d.personRef = item.PersonRef
	d.stage = item.Stage
	switch sch := item.Schedule.(type) {
	case model.PointSchedule:
		d.instant = sch.At
	case model.RangeSchedule:
		d.mode = ModeRange
		d.start, d.end = sch.Start, sch.End
	}
	d.transition(StateEditing)
	d.revalidate()
	return d
}

func (d *Draft) State() State { return d.state }
func (d *Draft) Mode() Mode { return d.mode }

// IsNew reports whether committing creates a new item.
func (d *Draft) IsNew() bool { return d.original == nil }

// Committed returns the stored item after a successful Commit.
func (d *Draft) Committed() *model.CalendarItem { return d.committed }

// Problems returns the result of the last validation, or nil when valid.
func (d *Draft) Problems() *ValidationError { return d.lastErr }

func (d *Draft) Instant() calendar.Instant { return d.instant }

// Range returns the range bounds; both are zero in point mode.
func (d *Draft) Range() (start, end calendar.Instant) { return d.start, d.end }

func (d *Draft) SetKind(k model.Kind) error {
	return d.set(func() { d.kind = k })
}

func (d *Draft) SetTitle(title string) error {
	return d.set(func() { d.title = title })
}

func (d *Draft) SetNote(note string) error {
	return d.set(func() { d.note = note })
}

func (d *Draft) SetProjectRef(ref string) error {
	return d.set(func() { d.projectRef = ref })
}

func (d *Draft) SetPersonRef(ref string) error {
	return d.set(func() { d.personRef = ref })
}

func (d *Draft) SetStage(stage string) error {
	return d.set(func() { d.stage = stage })
}

// SetInstant sets the point-mode instant.
func (d *Draft) SetInstant(i calendar.Instant) error {
	if d.mode != ModePoint && !d.state.Terminal() {
		return fmt.Errorf("set instant: %w", ErrWrongMode)
	}
	return d.set(func() { d.instant = i })
}

func (d *Draft) SetRangeStart(i calendar.Instant) error {
	if d.mode != ModeRange && !d.state.Terminal() {
		return fmt.Errorf("set range start: %w", ErrWrongMode)
	}
	return d.set(func() { d.start = i })
}

func (d *Draft) SetRangeEnd(i calendar.Instant) error {
	if d.mode != ModeRange && !d.state.Terminal() {
		return fmt.Errorf("set range end: %w", ErrWrongMode)
	}
	return d.set(func() { d.end = i })
}

// ToggleRangeMode switches between a point and a range schedule without
// losing the anchor day. Enabling turns instant I into the range I..I+1 day;
// disabling keeps the range start as the instant. Toggling to the current
// mode does nothing.
func (d *Draft) ToggleRangeMode(enable bool) error {
	if d.state.Terminal() {
		return ErrTerminal
	}
	if enable == (d.mode == ModeRange) {
		return nil
	}
	return d.set(func() {
		if enable {
			d.mode = ModeRange
			d.start = d.instant
			if !d.instant.IsZero() {
				d.end = d.instant.AddDays(1)
			}
			d.instant = calendar.Instant{}
			return
		}
		d.mode = ModePoint
		d.instant = d.start
		d.start, d.end = calendar.Instant{}, calendar.Instant{}
	})
}

func (d *Draft) set(mutate func()) error {
	if d.state.Terminal() {
		return ErrTerminal
	}
	mutate()
	d.transition(StateEditing)
	d.revalidate()
	return nil
}

// Validate re-checks every rule and returns a *ValidationError listing the
// failures, or nil.
func (d *Draft) Validate() error {
	if d.state.Terminal() {
		return ErrTerminal
	}
	d.revalidate()
	if d.lastErr != nil {
		return d.lastErr
	}
	return nil
}

func (d *Draft) revalidate() {
	var problems []Problem
	if !d.kind.Valid() {
		msg := "kind is required"
		if d.kind != "" {
			msg = fmt.Sprintf("unknown kind %q", d.kind)
		}
		problems = append(problems, Problem{FieldKind, MissingKind, msg})
	}
	if strings.TrimSpace(d.title) == "" {
		problems = append(problems, Problem{FieldTitle, MissingTitle, "title is required"})
	}
	switch d.mode {
	case ModePoint:
		if d.instant.IsZero() {
			problems = append(problems, Problem{FieldInstant, MissingSchedule, "date is required"})
		}
	case ModeRange:
		if d.start.IsZero() {
			problems = append(problems, Problem{FieldStart, MissingSchedule, "start is required"})
		}
		if d.end.IsZero() {
			problems = append(problems, Problem{FieldEnd, MissingSchedule, "end is required"})
		}
		if !d.start.IsZero() && !d.end.IsZero() && d.end.Before(d.start) {
			problems = append(problems, Problem{FieldEnd, InvertedRange, "end must not be before start"})
		}
	}

	if len(problems) == 0 {
		d.lastErr = nil
		d.transition(StateValid)
		return
	}
	d.lastErr = &ValidationError{Problems: problems}
	d.transition(StateInvalid)
}

// Schedule returns the draft's schedule, or nil when none is set.
func (d *Draft) Schedule() model.Schedule {
	if d.mode == ModeRange {
		if d.start.IsZero() && d.end.IsZero() {
			return nil
		}
		return model.RangeSchedule{Start: d.start, End: d.end}
	}
	if d.instant.IsZero() {
		return nil
	}
	return model.PointSchedule{At: d.instant}
}

// Item returns the draft's current fields as an item. For an edit draft the
// stored id and version are kept.
func (d *Draft) Item() model.CalendarItem {
	var item model.CalendarItem
	if d.original != nil {
		item = *d.original
	}
	item.Kind = d.kind
	item.Title = strings.TrimSpace(d.title)
	item.Note = d.note
	item.ProjectRef = d.projectRef
	item.PersonRef = d.personRef
	item.Stage = d.stage
	item.Schedule = d.Schedule()
	return item
}

// Commit validates the draft and saves it. Validation failures return a
// *ValidationError without calling the store. Store failures, conflicts and
// cancellation leave the draft Valid so the caller can retry.
func (d *Draft) Commit(ctx context.Context) (*model.CalendarItem, error) {
	if d.state.Terminal() {
		return nil, ErrTerminal
	}
	d.revalidate()
	if d.lastErr != nil {
		d.outcome(OutcomeInvalid)
		return nil, d.lastErr
	}
	if err := ctx.Err(); err != nil {
		d.outcome(OutcomeFailed)
		return nil, fmt.Errorf("commit draft: %w", err)
	}

	item := d.Item()
	var (
		saved   *model.CalendarItem
		err     error
		outcome string
	)
	if d.original == nil {
		saved, err = d.store.Create(ctx, item)
		outcome = OutcomeCreated
	} else {
		saved, err = d.store.Update(ctx, d.original.ID, patchFor(item, d.original.Version))
		outcome = OutcomeUpdated
	}
	if err != nil {
		d.logger.Warn("commit draft failed", "item_id", item.ID, "error", err)
		if errors.Is(err, store.ErrConflict) {
			d.outcome(OutcomeConflict)
		} else {
			d.outcome(OutcomeFailed)
		}
		return nil, fmt.Errorf("commit draft: %w", err)
	}

	d.committed = saved
	d.transition(StateCommitted)
	d.outcome(outcome)
	return saved, nil
}

// Discard abandons the draft.
func (d *Draft) Discard() error {
	if d.state.Terminal() {
		return ErrTerminal
	}
	d.transition(StateDiscarded)
	return nil
}

func (d *Draft) transition(to State) {
	if d.state == to {
		return
	}
	d.logger.Debug("draft transition", "from", d.state.String(), "to", to.String(), "mode", d.mode.String())
	d.state = to
}

func (d *Draft) outcome(o string) {
	if d.onCommit != nil {
		d.onCommit(o)
	}
}

func patchFor(item model.CalendarItem, version int64) model.ItemPatch {
	return model.ItemPatch{
		Kind:            &item.Kind,
		Title:           &item.Title,
		ProjectRef:      &item.ProjectRef,
		PersonRef:       &item.PersonRef,
		Stage:           &item.Stage,
		Schedule:        item.Schedule,
		Note:            &item.Note,
		ExpectedVersion: version,
	}
}
