package store

import (
	"context"
	"errors"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/model"
)

var (
	// ErrNotFound is returned by Update and Delete for an unknown id.
	ErrNotFound = errors.New("calendar item not found")
	// ErrConflict means the item changed since the caller read it.
	ErrConflict = errors.New("calendar item was modified concurrently")
	// ErrUnavailable wraps transport and driver failures. Callers may retry.
	ErrUnavailable = errors.New("event store unavailable")
	// ErrInvalidItem rejects items the store cannot persist, such as one
	// without a schedule.
	ErrInvalidItem = errors.New("invalid calendar item")
)

// EventStore is the persistence the scheduling engine relies on.
type EventStore interface {
	// Create assigns an id and version 1.
	Create(ctx context.Context, item model.CalendarItem) (*model.CalendarItem, error)
	Update(ctx context.Context, id string, patch model.ItemPatch) (*model.CalendarItem, error)
	Delete(ctx context.Context, id string) error
	// ListInRange returns items whose days overlap [start, end], compared
	// at day granularity.
	ListInRange(ctx context.Context, start, end calendar.Instant) ([]model.CalendarItem, error)
}
