package draft

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidationFailed matches every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")
	// ErrInvalidRange matches a *ValidationError that reports an inverted range.
	ErrInvalidRange = errors.New("range end is before start")
	// ErrTerminal is returned when a committed or discarded draft is touched.
	ErrTerminal = errors.New("draft is closed")
	// ErrWrongMode is returned when setting a point instant in range mode or
	// a range bound in point mode.
	ErrWrongMode = errors.New("field does not apply in the current schedule mode")
)

// Reason names a validation rule.
type Reason string

const (
	MissingTitle    Reason = "missing_title"
	MissingKind     Reason = "missing_kind"
	MissingSchedule Reason = "missing_schedule"
	InvertedRange   Reason = "inverted_range"
)

// Problem is one failed rule, attributed to the form field that caused it.
type Problem struct {
	Field   Field  `json:"field"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = fmt.Sprintf("%s: %s", p.Field, p.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrValidationFailed:
		return true
	case ErrInvalidRange:
		return e.Has(InvertedRange)
	}
	return false
}

// Has reports whether any problem has reason r.
func (e *ValidationError) Has(r Reason) bool {
	for _, p := range e.Problems {
		if p.Reason == r {
			return true
		}
	}
	return false
}

// ByField groups problem messages by field for form display.
func (e *ValidationError) ByField() map[Field][]string {
	out := make(map[Field][]string, len(e.Problems))
	for _, p := range e.Problems {
		out[p.Field] = append(out[p.Field], p.Message)
	}
	return out
}
