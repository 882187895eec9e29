package draft

import (
	"fmt"
	"strings"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/model"
)

// Field names a form field of the editor.
type Field string

const (
	FieldKind       Field = "kind"
	FieldTitle      Field = "title"
	FieldNote       Field = "note"
	FieldProjectRef Field = "project_ref"
	FieldPersonRef  Field = "person_ref"
	FieldStage      Field = "stage"
	FieldInstant    Field = "instant"
	FieldStart      Field = "start"
	FieldEnd        Field = "end"
)

// SetField sets a field from form text. Date fields accept the instant wire
// format; an empty value clears them. An unknown kind is stored as typed so
// validation can attribute the problem.
func (d *Draft) SetField(f Field, value string) error {
	switch f {
	case FieldKind:
		k, err := model.ParseKind(value)
		if err != nil {
			k = model.Kind(strings.TrimSpace(value))
		}
		return d.SetKind(k)
	case FieldTitle:
		return d.SetTitle(value)
	case FieldNote:
		return d.SetNote(value)
	case FieldProjectRef:
		return d.SetProjectRef(strings.TrimSpace(value))
	case FieldPersonRef:
		return d.SetPersonRef(strings.TrimSpace(value))
	case FieldStage:
		return d.SetStage(strings.TrimSpace(value))
	case FieldInstant, FieldStart, FieldEnd:
		var i calendar.Instant
		if strings.TrimSpace(value) != "" {
			var err error
			if i, err = calendar.ParseInstant(value); err != nil {
				return fmt.Errorf("set %s: %w", f, err)
			}
		}
		switch f {
		case FieldInstant:
			return d.SetInstant(i)
		case FieldStart:
			return d.SetRangeStart(i)
		default:
			return d.SetRangeEnd(i)
		}
	}
	return fmt.Errorf("unknown field %q", f)
}
