// Package eventindex joins calendar items onto the days of a grid.
package eventindex

import (
	"sort"

	"github.com/dukerupert/gahshomar/internal/model"
	"github.com/dukerupert/gahshomar/internal/monthgrid"
)

// Index maps a DayKey (YYYY-MM-DD) to the items shown on that day. Items
// point into the slice passed to Build and keep its order.
type Index map[string][]*model.CalendarItem

// Build places every item on each visible day its schedule touches. A point
// item lands on the day of its instant; a range item on every day from its
// start through its end inclusive. Items without a schedule are skipped.
func Build(items []model.CalendarItem, days []monthgrid.DayCell) Index {
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = d.Key
	}
	return BuildKeys(items, keys)
}

// BuildKeys is Build over raw day keys. Keys need not be sorted or unique.
func BuildKeys(items []model.CalendarItem, keys []string) Index {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	idx := make(Index, len(sorted))
	for i := range items {
		item := &items[i]
		if item.Schedule == nil {
			continue
		}
		first, last := item.Schedule.Span()
		lo, hi := first.DayKey(), last.DayKey()
		for j := sort.SearchStrings(sorted, lo); j < len(sorted) && sorted[j] <= hi; j++ {
			idx[sorted[j]] = append(idx[sorted[j]], item)
		}
	}
	return idx
}

// On returns the items for a day key.
func (x Index) On(key string) []*model.CalendarItem {
	return x[key]
}

// Count returns the number of (day, item) placements.
func (x Index) Count() int {
	n := 0
	for _, items := range x {
		n += len(items)
	}
	return n
}

// Keys returns the days that have at least one item, sorted.
func (x Index) Keys() []string {
	keys := make([]string, 0, len(x))
	for k := range x {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
