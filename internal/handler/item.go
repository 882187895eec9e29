package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/draft"
	"github.com/dukerupert/gahshomar/internal/model"
	"github.com/dukerupert/gahshomar/internal/store"
	"github.com/dukerupert/gahshomar/internal/websocket"
)

// Notifier is told about every committed change.
type Notifier interface {
	ItemChanged(action string, item model.CalendarItem)
}

type ItemHandler struct {
	store    *store.ItemStore
	notifier Notifier
	logger   *slog.Logger
	validate *validator.Validate
	// onCommit receives draft commit outcomes.
	onCommit func(string)
}

func NewItemHandler(s *store.ItemStore, n Notifier, logger *slog.Logger, onCommit func(string)) *ItemHandler {
	return &ItemHandler{
		store:    s,
		notifier: n,
		logger:   logger.With("component", "items"),
		validate: newValidator(),
		onCommit: onCommit,
	}
}

// itemRequest is the body of create and update. Dates are either instants
// in the wire format or Y-M-D in Calendar. Setting Start or End makes the
// item a range.
type itemRequest struct {
	Kind       string `json:"kind" validate:"omitempty,item_kind"`
	Title      string `json:"title" validate:"max=200"`
	ProjectRef string `json:"project_ref" validate:"max=100"`
	PersonRef  string `json:"person_ref" validate:"max=100"`
	Stage      string `json:"stage" validate:"max=100"`
	Note       string `json:"note" validate:"max=4000"`
	Calendar   string `json:"calendar" validate:"omitempty,calendar_system"`
	Instant    string `json:"instant"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Version    int64  `json:"version" validate:"min=0"`
}

func (req *itemRequest) isRange() bool {
	return strings.TrimSpace(req.Start) != "" || strings.TrimSpace(req.End) != ""
}

func (h *ItemHandler) decode(w http.ResponseWriter, r *http.Request) (*itemRequest, bool) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, false
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, problemResponse{Error: "validation failed", Problems: validationProblems(err)})
		return nil, false
	}
	return &req, true
}

// fill copies req into d. Date text that cannot be read is reported as a
// field problem rather than a bad request so forms can show it inline. The
// returned error is a draft refusing an edit.
func (h *ItemHandler) fill(d *draft.Draft, req *itemRequest) ([]draft.Problem, error) {
	sys := calendar.Gregorian
	if req.Calendar != "" {
		var err error
		if sys, err = calendar.ParseSystem(req.Calendar); err != nil {
			return []draft.Problem{{Field: "calendar", Reason: "calendar_system", Message: err.Error()}}, nil
		}
	}

	errs := []error{
		d.SetField(draft.FieldKind, req.Kind),
		d.SetTitle(req.Title),
		d.SetNote(req.Note),
		d.SetProjectRef(strings.TrimSpace(req.ProjectRef)),
		d.SetPersonRef(strings.TrimSpace(req.PersonRef)),
		d.SetStage(strings.TrimSpace(req.Stage)),
	}

	var problems []draft.Problem
	date := func(f draft.Field, text string) calendar.Instant {
		if strings.TrimSpace(text) == "" {
			return calendar.Instant{}
		}
		i, err := parseDate(text, sys)
		if err != nil {
			problems = append(problems, draft.Problem{Field: f, Reason: "invalid_date", Message: err.Error()})
		}
		return i
	}

	if req.isRange() {
		errs = append(errs,
			d.ToggleRangeMode(true),
			d.SetRangeStart(date(draft.FieldStart, req.Start)),
			d.SetRangeEnd(date(draft.FieldEnd, req.End)),
		)
	} else {
		errs = append(errs,
			d.ToggleRangeMode(false),
			d.SetInstant(date(draft.FieldInstant, req.Instant)),
		)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("fill draft: %w", err)
	}
	return problems, nil
}

func (h *ItemHandler) options() []draft.Option {
	return []draft.Option{draft.WithLogger(h.logger), draft.WithCommitHook(h.onCommit)}
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	d := draft.New(h.store, h.options()...)
	problems, err := h.fill(d, req)
	if err != nil {
		writeItemError(w, h.logger, "create item", err)
		return
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, problemResponse{Error: "validation failed", Problems: problems})
		return
	}

	item, err := d.Commit(r.Context())
	if err != nil {
		writeItemError(w, h.logger, "create item", err)
		return
	}

	h.logger.Info("item created", "id", item.ID, "kind", item.Kind)
	h.notifier.ItemChanged(websocket.ActionCreated, *item)
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start and end query parameters are required"})
		return
	}

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
	if end.Before(start) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end must not be before start"})
		return
	}

	items, err := h.store.List(r.Context(), start, end, store.Filter{
		PersonRef:  q.Get("person"),
		ProjectRef: q.Get("project"),
	})
	if err != nil {
		writeItemError(w, h.logger, "list items", err)
		return
	}
	if items == nil {
		items = []model.CalendarItem{}
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// lookup loads the item named by the id path value and writes the error
// response when there is none.
func (h *ItemHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.CalendarItem, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil, false
	}

	item, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeItemError(w, h.logger, "get item", err)
		return nil, false
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return nil, false
	}
	return item, true
}

// Update replaces the item's fields. The request must carry the version it
// was read at; a stale version is a conflict.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.Version == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, problemResponse{
			Error:    "validation failed",
			Problems: []draft.Problem{{Field: "version", Reason: "required", Message: "version is required"}},
		})
		return
	}

	existing.Version = req.Version
	d := draft.Edit(h.store, *existing, h.options()...)
	problems, err := h.fill(d, req)
	if err != nil {
		writeItemError(w, h.logger, "update item", err)
		return
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, problemResponse{Error: "validation failed", Problems: problems})
		return
	}

	item, err := d.Commit(r.Context())
	if err != nil {
		writeItemError(w, h.logger, "update item", err)
		return
	}

	h.logger.Info("item updated", "id", item.ID, "version", item.Version)
	h.notifier.ItemChanged(websocket.ActionUpdated, *item)
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), existing.ID); err != nil {
		writeItemError(w, h.logger, "delete item", err)
		return
	}

	h.logger.Info("item deleted", "id", existing.ID)
	h.notifier.ItemChanged(websocket.ActionDeleted, *existing)
	w.WriteHeader(http.StatusNoContent)
}
