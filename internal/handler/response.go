package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/draft"
	"github.com/dukerupert/gahshomar/internal/model"
	"github.com/dukerupert/gahshomar/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type problemResponse struct {
	Error    string          `json:"error"`
	Problems []draft.Problem `json:"problems"`
}

// writeItemError maps draft and store errors to responses.
func writeItemError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	var ve *draft.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, problemResponse{Error: "validation failed", Problems: ve.Problems})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "item was changed by someone else; reload and try again"})
	case errors.Is(err, store.ErrInvalidItem):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		logger.Error("store unavailable", "action", action, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "calendar store unavailable"})
	default:
		logger.Error("item request failed", "action", action, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to " + action})
	}
}

// newValidator registers the calendar-specific rules used by request structs.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("calendar_system", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseSystem(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("item_kind", func(fl validator.FieldLevel) bool {
		_, err := model.ParseKind(fl.Field().String())
		return err == nil
	})
	return v
}

// validationProblems converts validator errors into field problems.
func validationProblems(err error) []draft.Problem {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []draft.Problem{{Message: err.Error()}}
	}
	problems := make([]draft.Problem, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, draft.Problem{
			Field:   draft.Field(fe.Field()),
			Reason:  draft.Reason(fe.Tag()),
			Message: fieldMessage(fe),
		})
	}
	return problems
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "calendar_system":
		return "unknown calendar " + strconv.Quote(fe.Value().(string))
	case "item_kind":
		return "unknown kind " + strconv.Quote(fe.Value().(string))
	}
	return fe.Field() + " is invalid"
}

// parseDate reads a query date. A plain Y-M-D is read in sys; anything else
// must be in the instant wire format. A Y-M-D that is not a real day in sys
// is an error even when it would be a valid Gregorian day.
func parseDate(text string, sys calendar.System) (calendar.Instant, error) {
	d, err := calendar.Parse(sys, text)
	if err == nil {
		return d.Instant()
	}
	var de *calendar.DateError
	if errors.As(err, &de) {
		return calendar.Instant{}, err
	}
	if i, ierr := calendar.ParseInstant(text); ierr == nil {
		return i, nil
	}
	return calendar.Instant{}, err
}

func parseSystemParam(r *http.Request, name string, def calendar.System) (calendar.System, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return calendar.ParseSystem(v)
}

func parseIntParam(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(calendar.NormalizeDigits(r.URL.Query().Get(name)))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
