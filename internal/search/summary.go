package search

import (
	"github.com/alex-user-go/availgrid/internal/search/types"
	"github.com/alex-user-go/availgrid/internal/supplier"
)

// Summarize builds the per-hotel view of a run: which date labels each hotel
// appeared under and which suppliers offered it. Hotels are listed in
// first-seen order; dates and suppliers keep first-insertion order.
func Summarize(responses []types.TaggedResponse, lookup supplier.Lookup) []types.HotelSummaryEntry {
	type accum struct {
		dates     *orderedSet
		suppliers *orderedSet
	}

	order := newOrderedSet()
	byHotel := make(map[string]*accum)

	for _, resp := range responses {
		label := DateLabel(resp.Meta)

		for _, hotel := range resp.Document.AvailabilityRS.HotelResult {
			id := hotel.HotelID.String()
			entry, ok := byHotel[id]
			if !ok {
				entry = &accum{dates: newOrderedSet(), suppliers: newOrderedSet()}
				byHotel[id] = entry
				order.Add(id)
			}

			entry.dates.Add(label)
			for _, option := range hotel.HotelOption {
				entry.suppliers.Add(supplierFor(lookup, option.HotelOptionID))
			}
		}
	}

	out := make([]types.HotelSummaryEntry, 0, order.Len())
	for _, id := range order.Values() {
		entry := byHotel[id]
		out = append(out, types.HotelSummaryEntry{
			HotelID:   id,
			Dates:     entry.dates.Values(),
			Suppliers: entry.suppliers.Values(),
		})
	}
	return out
}
