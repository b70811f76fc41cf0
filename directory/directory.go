// Package directory implements the read side of event browsing: grouping
// active events into a calendar-year view and computing month boundaries for
// date-range queries.
package directory

import (
	"time"

	"campus-events/models"
)

type MonthGroup struct {
	Name   string         `json:"name"`
	Events []models.Event `json:"events"`
}

// GroupByMonth buckets events of the given calendar year by month index
// (0-11). Every month is present in the result, empty ones included, so
// callers can render a full calendar without special cases. Event order
// within a month follows the input order, which repositories return sorted
// ascending by date.
func GroupByMonth(events []models.Event, year int) map[int]MonthGroup {
	groups := make(map[int]MonthGroup, 12)
	for m := 0; m < 12; m++ {
		groups[m] = MonthGroup{
			Name:   time.Month(m + 1).String(),
			Events: []models.Event{},
		}
	}

	for _, e := range events {
		if !e.IsActive || e.Date.Year() != year {
			continue
		}
		m := int(e.Date.Month()) - 1
		g := groups[m]
		g.Events = append(g.Events, e)
		groups[m] = g
	}
	return groups
}

// YearRange returns the first and last instants of the calendar year.
func YearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	return start, end
}

// MonthRange returns the first and last instants of the given month (1-12).
// Both bounds are inclusive.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}
