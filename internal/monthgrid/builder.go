package monthgrid

import (
	"time"

	"github.com/dukerupert/gahshomar/internal/calendar"
)

// Builder builds grids for a configured display calendar and week start.
type Builder struct {
	Converter calendar.Converter
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewBuilder(conv calendar.Converter) *Builder {
	return &Builder{Converter: conv, Now: time.Now}
}

// Month builds the grid for year/month of the builder's display calendar.
func (b *Builder) Month(year, month int) (*Grid, error) {
	anchor, err := b.Converter.System.NewDate(year, month, 1)
	if err != nil {
		return nil, err
	}
	return b.Build(anchor)
}

// Build builds the grid for anchor's month. The anchor keeps its own
// calendar, so a Gregorian anchor yields a Gregorian grid.
func (b *Builder) Build(anchor calendar.Date) (*Grid, error) {
	return Build(anchor, b.Converter.FirstWeekday, calendar.Today(b.now()))
}

// Current builds the grid for the month containing today.
func (b *Builder) Current() (*Grid, error) {
	return b.Build(b.Converter.Today(b.now()))
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}
