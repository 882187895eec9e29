package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/model"
)

const itemColumns = `id, kind, title, project_ref, person_ref, stage, schedule, start_at, end_at, note, version, created_at, updated_at`

const (
	schedulePoint = "point"
	scheduleRange = "range"
)

// ItemStore is the SQLite EventStore.
type ItemStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ EventStore = (*ItemStore)(nil)

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db, now: time.Now}
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *ItemStore) Create(ctx context.Context, item model.CalendarItem) (*model.CalendarItem, error) {
	if err := checkItem(item); err != nil {
		return nil, err
	}
	cols, err := scheduleColumns(item.Schedule)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO calendar_items (id, kind, title, project_ref, person_ref, stage, schedule, start_at, end_at, start_day, end_day, note, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, string(item.Kind), item.Title, item.ProjectRef, item.PersonRef, item.Stage,
		cols.schedule, cols.startAt, cols.endAt, cols.startDay, cols.endDay, item.Note, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert calendar item: %w: %w", ErrUnavailable, err)
	}

	created, err := s.get(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("read back calendar item %s: %w", id, ErrUnavailable)
	}
	return created, nil
}

// GetByID returns nil, nil when no item has the id.
func (s *ItemStore) GetByID(ctx context.Context, id string) (*model.CalendarItem, error) {
	return s.get(ctx, s.db, id)
}

func (s *ItemStore) get(ctx context.Context, q queryRower, id string) (*model.CalendarItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM calendar_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query calendar item: %w: %w", ErrUnavailable, err)
	}
	return item, nil
}

// Update applies patch inside a transaction. A non-zero
// patch.ExpectedVersion must equal the stored version.
func (s *ItemStore) Update(ctx context.Context, id string, patch model.ItemPatch) (*model.CalendarItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w: %w", ErrUnavailable, err)
	}
	defer tx.Rollback()

	current, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("update calendar item %s: %w", id, ErrNotFound)
	}
	if patch.ExpectedVersion != 0 && patch.ExpectedVersion != current.Version {
		return nil, fmt.Errorf("update calendar item %s: have version %d, stored %d: %w",
			id, patch.ExpectedVersion, current.Version, ErrConflict)
	}

	next := patch.Apply(*current)
	if err := checkItem(next); err != nil {
		return nil, err
	}
	cols, err := scheduleColumns(next.Schedule)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE calendar_items
		 SET kind = ?, title = ?, project_ref = ?, person_ref = ?, stage = ?, schedule = ?,
		     start_at = ?, end_at = ?, start_day = ?, end_day = ?, note = ?,
		     version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		string(next.Kind), next.Title, next.ProjectRef, next.PersonRef, next.Stage, cols.schedule,
		cols.startAt, cols.endAt, cols.startDay, cols.endDay, next.Note,
		s.now().UTC().Format(time.RFC3339Nano), id, current.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("update calendar item: %w: %w", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w: %w", ErrUnavailable, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update calendar item %s: %w", id, ErrConflict)
	}

	updated, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w: %w", ErrUnavailable, err)
	}
	return updated, nil
}

func (s *ItemStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM calendar_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete calendar item: %w: %w", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w: %w", ErrUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("delete calendar item %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListInRange returns items overlapping the days start..end, ordered by start
// and then by creation.
func (s *ItemStore) ListInRange(ctx context.Context, start, end calendar.Instant) ([]model.CalendarItem, error) {
	return s.List(ctx, start, end, Filter{})
}

// Filter narrows List to one person or project. Empty fields match all.
type Filter struct {
	PersonRef  string
	ProjectRef string
}

// List is ListInRange with a filter.
func (s *ItemStore) List(ctx context.Context, start, end calendar.Instant, f Filter) ([]model.CalendarItem, error) {
	query := `SELECT ` + itemColumns + ` FROM calendar_items WHERE start_day <= ? AND end_day >= ?`
	args := []any{end.DayKey(), start.DayKey()}
	if f.PersonRef != "" {
		query += ` AND person_ref = ?`
		args = append(args, f.PersonRef)
	}
	if f.ProjectRef != "" {
		query += ` AND project_ref = ?`
		args = append(args, f.ProjectRef)
	}
	query += ` ORDER BY start_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calendar items: %w: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var items []model.CalendarItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar items: %w: %w", ErrUnavailable, err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*model.CalendarItem, error) {
	var item model.CalendarItem
	var kind, schedule, startAt, endAt, createdAt, updatedAt string
	err := row.Scan(&item.ID, &kind, &item.Title, &item.ProjectRef, &item.PersonRef, &item.Stage,
		&schedule, &startAt, &endAt, &item.Note, &item.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	item.Kind = model.Kind(kind)

	start, err := calendar.ParseInstant(startAt)
	if err != nil {
		return nil, fmt.Errorf("parse start_at: %w", err)
	}
	switch schedule {
	case schedulePoint:
		item.Schedule = model.PointSchedule{At: start}
	case scheduleRange:
		end, err := calendar.ParseInstant(endAt)
		if err != nil {
			return nil, fmt.Errorf("parse end_at: %w", err)
		}
		item.Schedule = model.RangeSchedule{Start: start, End: end}
	default:
		return nil, fmt.Errorf("unknown schedule %q", schedule)
	}

	if item.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if item.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &item, nil
}

type scheduleCols struct {
	schedule         string
	startAt, endAt   string
	startDay, endDay string
}

func scheduleColumns(s model.Schedule) (scheduleCols, error) {
	switch s := s.(type) {
	case model.PointSchedule:
		at := s.At.String()
		day := s.At.DayKey()
		return scheduleCols{schedulePoint, at, at, day, day}, nil
	case model.RangeSchedule:
		if err := s.Validate(); err != nil {
			return scheduleCols{}, fmt.Errorf("%w: %w", ErrInvalidItem, err)
		}
		return scheduleCols{scheduleRange, s.Start.String(), s.End.String(), s.Start.DayKey(), s.End.DayKey()}, nil
	}
	return scheduleCols{}, fmt.Errorf("%w: missing schedule", ErrInvalidItem)
}

func checkItem(item model.CalendarItem) error {
	var problems []string
	if !item.Kind.Valid() {
		problems = append(problems, fmt.Sprintf("kind %q", item.Kind))
	}
	if strings.TrimSpace(item.Title) == "" {
		problems = append(problems, "empty title")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidItem, strings.Join(problems, ", "))
	}
	return nil
}
