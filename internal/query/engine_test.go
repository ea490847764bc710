package query

import (
	"strings"
	"testing"
	"time"

	"partdepot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

func part(partNumber int, name string, partType model.PartType, location string, year *int) model.Part {
	return model.Part{
		PartNumber: partNumber,
		Name:       name,
		PartType:   partType,
		Typt:       "generic",
		Year:       year,
		Location:   location,
	}
}

func withEvent(p model.Part, daysAgo int) model.Part {
	p.EventsHistory = datatypes.JSONSlice[model.EventEntry]{
		{
			Date:        testNow.Add(-time.Duration(daysAgo) * 24 * time.Hour),
			Description: "checked",
			Technician:  "dana",
		},
	}
	return p
}

func names(parts []model.Part) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.Name)
	}
	return out
}

func TestEmptyFilterReturnsAllSortedByName(t *testing.T) {
	snapshot := []model.Part{
		part(3, "Wheel", model.PartTypeComponent, "Shelf2", intPtr(2024)),
		part(1, "bolt M3", model.PartTypeConsumable, "Shelf1", intPtr(2023)),
		part(2, "Motor", model.PartTypeComponent, "Shelf1", intPtr(2025)),
	}

	got := Apply(snapshot, Filter{}, testNow)
	assert.Equal(t, []string{"bolt M3", "Motor", "Wheel"}, names(got))
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	snapshot := []model.Part{
		part(1, "Bolt M3", model.PartTypeConsumable, "Shelf1", intPtr(2023)),
		part(2, "Nut M3", model.PartTypeConsumable, "Shelf1", intPtr(2023)),
	}

	got := Apply(snapshot, Filter{Search: "bolt"}, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, "Bolt M3", got[0].Name)
}

func TestFiltersAreConjunctive(t *testing.T) {
	snapshot := []model.Part{
		part(1, "Axle bolt", model.PartTypeComponent, "Shelf1", intPtr(2024)),
		part(2, "Axle bolt spare", model.PartTypeConsumable, "Shelf1", intPtr(2024)),
		part(3, "Axle", model.PartTypeComponent, "Shelf1", intPtr(2024)),
	}

	got := Apply(snapshot, Filter{
		Search:    "bolt",
		PartTypes: []model.PartType{model.PartTypeComponent},
	}, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, "Axle bolt", got[0].Name)
	for _, p := range got {
		assert.Contains(t, strings.ToLower(p.Name), "bolt")
		assert.Equal(t, model.PartTypeComponent, p.PartType)
	}
}

func TestLocationAndYearRange(t *testing.T) {
	snapshot := []model.Part{
		part(1, "A", model.PartTypeComponent, "Shelf1", intPtr(2022)),
		part(2, "B", model.PartTypeComponent, "Shelf2", intPtr(2024)),
		part(3, "C", model.PartTypeComponent, "Shelf1", intPtr(2025)),
		part(4, "D", model.PartTypeComponent, "Shelf1", nil), // no year: passes any range
	}

	got := Apply(snapshot, Filter{
		Locations: []string{"Shelf1"},
		YearMin:   intPtr(2023),
		YearMax:   intPtr(2026),
	}, testNow)

	assert.Equal(t, []string{"C", "D"}, names(got))
}

func TestSortByYearDescendingWithNameTieBreak(t *testing.T) {
	snapshot := []model.Part{
		part(1, "Zeta", model.PartTypeComponent, "S", intPtr(2023)),
		part(2, "Alpha", model.PartTypeComponent, "S", intPtr(2025)),
		part(3, "Beta", model.PartTypeComponent, "S", intPtr(2025)),
		part(4, "NoYear", model.PartTypeComponent, "S", nil),
	}

	got := Apply(snapshot, Filter{SortBy: SortByYear}, testNow)
	assert.Equal(t, []string{"Alpha", "Beta", "Zeta", "NoYear"}, names(got))
}

func TestSortByLastEventFallsBackToName(t *testing.T) {
	snapshot := []model.Part{
		withEvent(part(1, "Bravo", model.PartTypeComponent, "S", nil), 2),
		withEvent(part(2, "Alpha", model.PartTypeComponent, "S", nil), 100),
	}

	// lastEvent does not sort by recency — it falls back to name ascending.
	got := Apply(snapshot, Filter{SortBy: SortByLastEvent}, testNow)
	assert.Equal(t, []string{"Alpha", "Bravo"}, names(got))
}

func TestSortByLocationHistoryFallsBackToLocation(t *testing.T) {
	snapshot := []model.Part{
		part(1, "A", model.PartTypeComponent, "Zone9", nil),
		part(2, "B", model.PartTypeComponent, "Aisle1", nil),
	}

	got := Apply(snapshot, Filter{SortBy: SortByLocationHistory}, testNow)
	assert.Equal(t, []string{"B", "A"}, names(got))
}

func TestLastEventRangeFiltersAfterSort(t *testing.T) {
	snapshot := []model.Part{
		withEvent(part(1, "Fresh", model.PartTypeComponent, "S", nil), 3),
		withEvent(part(2, "Stale", model.PartTypeComponent, "S", nil), 90),
	}

	got := Apply(snapshot, Filter{LastEventMin: intPtr(0), LastEventMax: intPtr(30)}, testNow)
	assert.Equal(t, []string{"Fresh"}, names(got))

	got = Apply(snapshot, Filter{LastEventMin: intPtr(30), LastEventMax: intPtr(365)}, testNow)
	assert.Equal(t, []string{"Stale"}, names(got))
}

func TestZeroEventsUsesVeryOldProxy(t *testing.T) {
	never := part(1, "Never serviced", model.PartTypeComponent, "S", nil)

	// Included when the upper bound reaches 365.
	got := Apply([]model.Part{never}, Filter{LastEventMin: intPtr(0), LastEventMax: intPtr(365)}, testNow)
	assert.Len(t, got, 1)

	// Excluded by tighter ranges.
	got = Apply([]model.Part{never}, Filter{LastEventMin: intPtr(0), LastEventMax: intPtr(30)}, testNow)
	assert.Empty(t, got)

	// No upper bound behaves like an unbounded (very old) range.
	got = Apply([]model.Part{never}, Filter{LastEventMin: intPtr(0)}, testNow)
	assert.Len(t, got, 1)
}

func TestDaysSinceLastEventFloorTruncates(t *testing.T) {
	p := part(1, "P", model.PartTypeComponent, "S", nil)
	p.EventsHistory = datatypes.JSONSlice[model.EventEntry]{
		{Date: testNow.Add(-47 * time.Hour), Description: "x", Technician: "y"},
	}

	days, ok := DaysSinceLastEvent(&p, testNow)
	require.True(t, ok)
	assert.Equal(t, 1, days) // 47h = 1.96 days → floors to 1

	q := part(2, "Q", model.PartTypeComponent, "S", nil)
	_, ok = DaysSinceLastEvent(&q, testNow)
	assert.False(t, ok)
}

func TestLastEventUsesMostRecentEntry(t *testing.T) {
	p := part(1, "P", model.PartTypeComponent, "S", nil)
	p.EventsHistory = datatypes.JSONSlice[model.EventEntry]{
		{Date: testNow.Add(-200 * 24 * time.Hour), Description: "old", Technician: "a"},
		{Date: testNow.Add(-5 * 24 * time.Hour), Description: "recent", Technician: "b"},
	}

	days, ok := DaysSinceLastEvent(&p, testNow)
	require.True(t, ok)
	assert.Equal(t, 5, days)
}

func TestApplyDoesNotMutateSnapshot(t *testing.T) {
	snapshot := []model.Part{
		part(2, "B", model.PartTypeComponent, "S", nil),
		part(1, "A", model.PartTypeComponent, "S", nil),
	}

	_ = Apply(snapshot, Filter{}, testNow)
	assert.Equal(t, "B", snapshot[0].Name)
	assert.Equal(t, "A", snapshot[1].Name)
}
