package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-user-go/availgrid/internal/search"
	"github.com/alex-user-go/availgrid/internal/search/types"
)

func sortFixture() []types.NormalizedRow {
	return []types.NormalizedRow{
		{HotelID: "10", Price: 300},
		{HotelID: "9", Price: 100},
		{HotelID: "101", Price: 200},
	}
}

func prices(rows []types.NormalizedRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Price
	}
	return out
}

func hotelIDs(rows []types.NormalizedRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.HotelID
	}
	return out
}

func TestSortState_ToggleCycle(t *testing.T) {
	rows := sortFixture()
	var state search.SortState

	// unsorted → asc
	state.Toggle(search.SortPrice)
	assert.Equal(t, []float64{100, 200, 300}, prices(state.Apply(rows)))

	// asc → desc
	state.Toggle(search.SortPrice)
	assert.Equal(t, []float64{300, 200, 100}, prices(state.Apply(rows)))

	// desc → unsorted: original input order again
	state.Toggle(search.SortPrice)
	assert.Equal(t, []float64{300, 100, 200}, prices(state.Apply(rows)))
	assert.Equal(t, search.SortNone, state.Key)
}

func TestSortState_OneKeyActiveAtATime(t *testing.T) {
	var state search.SortState
	state.Toggle(search.SortPrice)
	state.Toggle(search.SortPrice) // price desc

	// Activating the hotel key clears price and starts ascending.
	state.Toggle(search.SortHotel)
	assert.Equal(t, search.SortHotel, state.Key)
	assert.Equal(t, search.Ascending, state.Dir)
}

func TestSortState_HotelIDComparedNumerically(t *testing.T) {
	var state search.SortState
	state.Toggle(search.SortHotel)

	// Lexicographic order would put "10" and "101" before "9".
	assert.Equal(t, []string{"9", "10", "101"}, hotelIDs(state.Apply(sortFixture())))
}

func TestSortState_NoKeyIsPassthrough(t *testing.T) {
	rows := sortFixture()
	out := search.SortState{}.Apply(rows)
	assert.Equal(t, rows, out)

	// The result is a copy, not an alias.
	require.NotEmpty(t, out)
	out[0].HotelID = "mutated"
	assert.Equal(t, "10", rows[0].HotelID)
}

func TestSortState_StableOnEqualValues(t *testing.T) {
	rows := []types.NormalizedRow{
		{HotelID: "1", RoomType: "first", Price: 100},
		{HotelID: "2", RoomType: "second", Price: 100},
	}
	state := search.SortState{Key: search.SortPrice, Dir: search.Ascending}

	out := state.Apply(rows)
	assert.Equal(t, "first", out[0].RoomType)
	assert.Equal(t, "second", out[1].RoomType)
}
