package search

import (
	"math"
	"sort"
	"strconv"

	"github.com/alex-user-go/availgrid/internal/search/types"
)

// SortKey selects the column rows are ordered by.
type SortKey string

// Sortable columns. Hotel ids and prices are compared numerically.
const (
	SortNone  SortKey = ""
	SortHotel SortKey = "hotelId"
	SortPrice SortKey = "price"
)

// SortDirection is the order applied to the active key.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortState holds at most one active (key, direction) pair. The zero value
// means no sort: rows pass through in input order.
type SortState struct {
	Key SortKey
	Dir SortDirection
}

// Toggle advances the state for key: a fresh key starts ascending, the same
// key cycles asc → desc → unsorted. Activating one key clears the other.
func (s *SortState) Toggle(key SortKey) {
	if s.Key != key {
		s.Key = key
		s.Dir = Ascending
		return
	}
	switch s.Dir {
	case Ascending:
		s.Dir = Descending
	default:
		s.Key = SortNone
		s.Dir = ""
	}
}

// Apply returns a new slice ordered by the active key, or a copy in input
// order when no key is active. Equal values keep their input order.
func (s SortState) Apply(rows []types.NormalizedRow) []types.NormalizedRow {
	out := make([]types.NormalizedRow, len(rows))
	copy(out, rows)

	if s.Key == SortNone {
		return out
	}

	value := func(r types.NormalizedRow) float64 {
		if s.Key == SortHotel {
			return numeric(r.HotelID)
		}
		return r.Price
	}

	sort.SliceStable(out, func(i, j int) bool {
		if s.Dir == Descending {
			return value(out[j]) < value(out[i])
		}
		return value(out[i]) < value(out[j])
	})

	return out
}

// numeric parses s as a number; unparsable values compare as NaN, which
// never wins a comparison and therefore keeps its input position.
func numeric(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
