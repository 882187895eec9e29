package draft

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/model"
	"github.com/dukerupert/gahshomar/internal/store"
)

// fakeStore records calls and fails with err when set.
type fakeStore struct {
	creates []model.CalendarItem
	updates []model.ItemPatch
	err     error
}

func (f *fakeStore) Create(_ context.Context, item model.CalendarItem) (*model.CalendarItem, error) {
	f.creates = append(f.creates, item)
	if f.err != nil {
		return nil, f.err
	}
	item.ID = fmt.Sprintf("item-%d", len(f.creates))
	item.Version = 1
	return &item, nil
}

func (f *fakeStore) Update(_ context.Context, id string, patch model.ItemPatch) (*model.CalendarItem, error) {
	f.updates = append(f.updates, patch)
	if f.err != nil {
		return nil, f.err
	}
	item := patch.Apply(model.CalendarItem{ID: id})
	item.Version = patch.ExpectedVersion + 1
	return &item, nil
}

func (f *fakeStore) Delete(context.Context, string) error { return f.err }

func (f *fakeStore) ListInRange(context.Context, calendar.Instant, calendar.Instant) ([]model.CalendarItem, error) {
	return nil, f.err
}

func (f *fakeStore) calls() int { return len(f.creates) + len(f.updates) }

func validPointDraft(t *testing.T, s store.EventStore) *Draft {
	t.Helper()
	d := New(s)
	mustNil(t, d.SetKind(model.KindMeeting))
	mustNil(t, d.SetTitle("Kickoff"))
	mustNil(t, d.SetInstant(calendar.DateOf(2024, time.June, 15)))
	if d.State() != StateValid {
		t.Fatalf("state = %v, want valid (%v)", d.State(), d.Problems())
	}
	return d
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewDraftStartsEmpty(t *testing.T) {
	d := New(&fakeStore{})
	if d.State() != StateEmpty || d.Mode() != ModePoint || !d.IsNew() {
		t.Errorf("new draft = %v/%v", d.State(), d.Mode())
	}
	mustNil(t, d.SetTitle("x"))
	if d.State() != StateInvalid {
		t.Errorf("state after one field = %v, want invalid", d.State())
	}
}

func TestCommitEmptyTitle(t *testing.T) {
	fs := &fakeStore{}
	d := validPointDraft(t, fs)
	mustNil(t, d.SetTitle("   "))

	_, err := d.Commit(context.Background())
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("error = %v, want ErrValidationFailed", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || !ve.Has(MissingTitle) {
		t.Fatalf("error = %v, want MissingTitle", err)
	}
	if got := ve.ByField()[FieldTitle]; len(got) != 1 {
		t.Errorf("title problems = %v", got)
	}
	if d.State() != StateInvalid {
		t.Errorf("state = %v, want invalid", d.State())
	}
	if fs.calls() != 0 {
		t.Errorf("store called %d times", fs.calls())
	}

	// Still editable.
	mustNil(t, d.SetTitle("Kickoff"))
	if d.State() != StateValid {
		t.Errorf("state after fix = %v", d.State())
	}
}

func TestCommitInvertedRange(t *testing.T) {
	fs := &fakeStore{}
	d := validPointDraft(t, fs)
	mustNil(t, d.ToggleRangeMode(true))
	mustNil(t, d.SetRangeStart(calendar.DateOf(2024, time.June, 20)))
	mustNil(t, d.SetRangeEnd(calendar.DateOf(2024, time.June, 18)))

	_, err := d.Commit(context.Background())
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("error = %v, want ErrInvalidRange", err)
	}
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("error = %v, want ErrValidationFailed too", err)
	}
	if fs.calls() != 0 {
		t.Errorf("store called %d times before validation passed", fs.calls())
	}
	if d.State() != StateInvalid {
		t.Errorf("state = %v", d.State())
	}
}

func TestSameDayRangeIsValid(t *testing.T) {
	d := validPointDraft(t, &fakeStore{})
	mustNil(t, d.ToggleRangeMode(true))
	mustNil(t, d.SetRangeEnd(calendar.DateOf(2024, time.June, 15)))
	if err := d.Validate(); err != nil {
		t.Errorf("Validate = %v", err)
	}
}

func TestToggleRangeModePreservesAnchor(t *testing.T) {
	anchor := calendar.At(2024, time.June, 15, 9, 30, 0)
	d := validPointDraft(t, &fakeStore{})
	mustNil(t, d.SetInstant(anchor))

	mustNil(t, d.ToggleRangeMode(true))
	start, end := d.Range()
	if !start.Equal(anchor) || !end.Equal(anchor.AddDays(1)) {
		t.Errorf("range = %s..%s", start, end)
	}
	if !d.Instant().IsZero() {
		t.Error("instant should be cleared in range mode")
	}
	if d.Mode() != ModeRange || d.State() != StateValid {
		t.Errorf("mode/state = %v/%v", d.Mode(), d.State())
	}

	mustNil(t, d.ToggleRangeMode(false))
	if !d.Instant().Equal(anchor) {
		t.Errorf("instant = %s, want %s", d.Instant(), anchor)
	}
	if s, e := d.Range(); !s.IsZero() || !e.IsZero() {
		t.Error("range should be cleared in point mode")
	}
}

func TestToggleSameModeIsNoop(t *testing.T) {
	d := validPointDraft(t, &fakeStore{})
	mustNil(t, d.ToggleRangeMode(false))
	if d.Mode() != ModePoint || d.Instant().IsZero() {
		t.Error("toggling to the current mode should change nothing")
	}
}

func TestToggleWithoutInstant(t *testing.T) {
	d := New(&fakeStore{})
	mustNil(t, d.ToggleRangeMode(true))
	var ve *ValidationError
	if err := d.Validate(); !errors.As(err, &ve) || !ve.Has(MissingSchedule) {
		t.Errorf("Validate = %v, want MissingSchedule", err)
	}
}

func TestSetterRejectsWrongMode(t *testing.T) {
	d := New(&fakeStore{})
	if err := d.SetRangeStart(calendar.DateOf(2024, time.June, 1)); !errors.Is(err, ErrWrongMode) {
		t.Errorf("SetRangeStart in point mode = %v", err)
	}
	mustNil(t, d.ToggleRangeMode(true))
	if err := d.SetInstant(calendar.DateOf(2024, time.June, 1)); !errors.Is(err, ErrWrongMode) {
		t.Errorf("SetInstant in range mode = %v", err)
	}
}

func TestCommitCreates(t *testing.T) {
	fs := &fakeStore{}
	var outcomes []string
	d := New(fs, WithCommitHook(func(o string) { outcomes = append(outcomes, o) }))
	mustNil(t, d.SetField(FieldKind, "Deadline"))
	mustNil(t, d.SetField(FieldTitle, "  Report  "))
	mustNil(t, d.SetField(FieldInstant, "2024-06-30"))

	item, err := d.Commit(context.Background())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if item.ID == "" || item.Title != "Report" || item.Kind != model.KindDeadline {
		t.Errorf("item = %+v", item)
	}
	if d.State() != StateCommitted || d.Committed() != item {
		t.Errorf("state = %v", d.State())
	}
	if len(outcomes) != 1 || outcomes[0] != OutcomeCreated {
		t.Errorf("outcomes = %v", outcomes)
	}

	if err := d.SetTitle("again"); !errors.Is(err, ErrTerminal) {
		t.Errorf("SetTitle after commit = %v", err)
	}
	if _, err := d.Commit(context.Background()); !errors.Is(err, ErrTerminal) {
		t.Errorf("second commit = %v", err)
	}
	if err := d.Discard(); !errors.Is(err, ErrTerminal) {
		t.Errorf("discard after commit = %v", err)
	}
}

func TestCommitStoreFailureStaysValid(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"unavailable", fmt.Errorf("insert: %w", store.ErrUnavailable), OutcomeFailed},
		{"conflict", store.ErrConflict, OutcomeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{err: tt.err}
			var got string
			d := validPointDraft(t, fs)
			d.onCommit = func(o string) { got = o }

			_, err := d.Commit(context.Background())
			if !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}
			if d.State() != StateValid {
				t.Errorf("state = %v, want valid", d.State())
			}
			if got != tt.outcome {
				t.Errorf("outcome = %q, want %q", got, tt.outcome)
			}

			fs.err = nil
			if _, err := d.Commit(context.Background()); err != nil {
				t.Fatalf("retry: %v", err)
			}
			if d.State() != StateCommitted {
				t.Errorf("state after retry = %v", d.State())
			}
		})
	}
}

func TestCommitCancelledContext(t *testing.T) {
	fs := &fakeStore{}
	d := validPointDraft(t, fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Commit(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if d.State() != StateValid {
		t.Errorf("state = %v, want valid", d.State())
	}
	if fs.calls() != 0 {
		t.Errorf("store called %d times", fs.calls())
	}
}

func TestEditSendsExpectedVersion(t *testing.T) {
	fs := &fakeStore{}
	item := model.CalendarItem{
		ID:      "abc",
		Kind:    model.KindEvent,
		Title:   "Conference",
		Version: 4,
		Schedule: model.RangeSchedule{
			Start: calendar.DateOf(2024, time.June, 14),
			End:   calendar.DateOf(2024, time.June, 16),
		},
	}
	d := Edit(fs, item)
	if d.IsNew() || d.Mode() != ModeRange || d.State() != StateValid {
		t.Fatalf("edit draft = new:%v %v/%v", d.IsNew(), d.Mode(), d.State())
	}
	mustNil(t, d.SetField(FieldEnd, "2024-06-17"))

	saved, err := d.Commit(context.Background())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(fs.updates) != 1 || fs.updates[0].ExpectedVersion != 4 {
		t.Fatalf("updates = %+v", fs.updates)
	}
	if saved.ID != "abc" || saved.Version != 5 {
		t.Errorf("saved = %s v%d", saved.ID, saved.Version)
	}
	r, ok := saved.Schedule.(model.RangeSchedule)
	if !ok || r.End.String() != "2024-06-17" {
		t.Errorf("schedule = %#v", saved.Schedule)
	}
}

func TestDiscard(t *testing.T) {
	fs := &fakeStore{}
	d := New(fs)
	mustNil(t, d.SetTitle("scratch"))
	mustNil(t, d.Discard())
	if d.State() != StateDiscarded {
		t.Errorf("state = %v", d.State())
	}
	if err := d.ToggleRangeMode(true); !errors.Is(err, ErrTerminal) {
		t.Errorf("toggle after discard = %v", err)
	}
	if fs.calls() != 0 {
		t.Error("discard must not touch the store")
	}
}

func TestSetFieldErrors(t *testing.T) {
	d := New(&fakeStore{})
	if err := d.SetField(FieldInstant, "not a date"); err == nil {
		t.Error("expected parse error")
	}
	if err := d.SetField("colour", "red"); err == nil {
		t.Error("expected unknown field error")
	}
	mustNil(t, d.SetField(FieldKind, "party"))
	var ve *ValidationError
	if err := d.Validate(); !errors.As(err, &ve) || !ve.Has(MissingKind) {
		t.Errorf("Validate = %v, want MissingKind", err)
	}
}
