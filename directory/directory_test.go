package directory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-events/models"
)

func eventOn(id string, date time.Time) models.Event {
	return models.Event{ID: id, Title: id, Date: date, IsActive: true}
}

func TestGroupByMonthEmptyYear(t *testing.T) {
	groups := GroupByMonth(nil, 2026)

	require.Len(t, groups, 12)
	for m := 0; m < 12; m++ {
		g, ok := groups[m]
		require.True(t, ok, "month %d missing", m)
		assert.Equal(t, time.Month(m+1).String(), g.Name)
		assert.NotNil(t, g.Events)
		assert.Empty(t, g.Events)
	}
}

func TestGroupByMonthBuckets(t *testing.T) {
	events := []models.Event{
		eventOn("jan-early", time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)),
		eventOn("jan-late", time.Date(2026, time.January, 20, 10, 0, 0, 0, time.UTC)),
		eventOn("june", time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)),
		eventOn("dec", time.Date(2026, time.December, 31, 23, 0, 0, 0, time.UTC)),
	}

	groups := GroupByMonth(events, 2026)

	require.Len(t, groups[0].Events, 2)
	assert.Equal(t, "jan-early", groups[0].Events[0].ID)
	assert.Equal(t, "jan-late", groups[0].Events[1].ID)
	assert.Len(t, groups[5].Events, 1)
	assert.Len(t, groups[11].Events, 1)
	assert.Empty(t, groups[2].Events)
}

func TestGroupByMonthFiltersOtherYearsAndInactive(t *testing.T) {
	inactive := eventOn("hidden", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	inactive.IsActive = false

	events := []models.Event{
		eventOn("prev-year", time.Date(2025, time.December, 31, 12, 0, 0, 0, time.UTC)),
		eventOn("next-year", time.Date(2027, time.January, 1, 12, 0, 0, 0, time.UTC)),
		inactive,
		eventOn("kept", time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)),
	}

	groups := GroupByMonth(events, 2026)

	require.Len(t, groups[2].Events, 1)
	assert.Equal(t, "kept", groups[2].Events[0].ID)
	assert.Empty(t, groups[11].Events)
	assert.Empty(t, groups[0].Events)
}

func TestYearRange(t *testing.T) {
	from, to := YearRange(2026)

	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), from)
	assert.True(t, to.Before(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2026, to.Year())
	assert.Equal(t, time.December, to.Month())
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(2026, 2)

	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.February, to.Month())
	assert.Equal(t, 28, to.Day())

	// Leap year February runs through the 29th.
	_, leapTo := MonthRange(2024, 2)
	assert.Equal(t, 29, leapTo.Day())
}
