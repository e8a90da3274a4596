package search

import (
	"math"
	"strings"

	"github.com/alex-user-go/availgrid/internal/search/types"
	"github.com/alex-user-go/availgrid/internal/supplier"
)

// BuildMatrix computes the per-date cheapest-supplier coverage matrix from a
// run's responses and the originally requested hotel-id CSV.
//
// For every hotel present under a date label, the single cheapest room offer
// across all of its options decides which supplier gets the win for that
// label. The comparison is strict less-than against the running minimum, so
// the first offer seen wins exact ties. Offers with unparsable prices never
// take part in the scan. Responses sharing a label accumulate into one entry.
func BuildMatrix(responses []types.TaggedResponse, requestedCSV string, lookup supplier.Lookup) types.MatrixResult {
	requested := parseRequestedIDs(requestedCSV)

	type dateAccum struct {
		counts map[string]int
		found  *orderedSet
	}

	labels := newOrderedSet()
	byLabel := make(map[string]*dateAccum)
	suppliers := newOrderedSet()
	foundGlobal := newOrderedSet()

	for _, resp := range responses {
		label := DateLabel(resp.Meta)
		acc, ok := byLabel[label]
		if !ok {
			acc = &dateAccum{counts: make(map[string]int), found: newOrderedSet()}
			byLabel[label] = acc
			labels.Add(label)
		}

		for _, hotel := range resp.Document.AvailabilityRS.HotelResult {
			id := hotel.HotelID.String()
			acc.found.Add(id)
			foundGlobal.Add(id)

			winner, ok := cheapestSupplier(hotel, lookup)
			if !ok {
				continue
			}
			acc.counts[winner]++
			suppliers.Add(winner)
		}
	}

	result := types.MatrixResult{
		Suppliers:        suppliers.Values(),
		NotFound:         make(map[string]int, labels.Len()),
		RequestedCount:   requested.Len(),
		FoundUniqueCount: foundGlobal.Len(),
	}

	for _, label := range labels.Values() {
		acc := byLabel[label]

		max := 0
		for _, n := range acc.counts {
			if n > max {
				max = n
			}
		}
		result.Dates = append(result.Dates, types.DateMatrixEntry{
			Date:   label,
			Counts: acc.counts,
			Max:    max,
		})

		// Not-found accounting is meaningless without a requested set.
		missing := 0
		if requested.Len() > 0 {
			for _, id := range requested.Values() {
				if !acc.found.Has(id) {
					missing++
				}
			}
		}
		result.NotFound[label] = missing
	}

	return result
}

// cheapestSupplier scans every room in every room group of every option and
// returns the supplier of the minimum-priced offer.
func cheapestSupplier(hotel types.HotelResult, lookup supplier.Lookup) (string, bool) {
	best := math.Inf(1)
	winner := ""
	found := false

	for _, option := range hotel.HotelOption {
		name := supplierFor(lookup, option.HotelOptionID)
		for _, group := range option.HotelRooms {
			for _, room := range group {
				price, err := room.Price.Float()
				if err != nil {
					continue
				}
				if price < best {
					best = price
					winner = name
					found = true
				}
			}
		}
	}

	return winner, found
}

func parseRequestedIDs(csv string) *orderedSet {
	set := newOrderedSet()
	for _, part := range strings.Split(csv, ",") {
		if id := strings.TrimSpace(part); id != "" {
			set.Add(id)
		}
	}
	return set
}
