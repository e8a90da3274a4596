package search

import (
	"strings"

	"github.com/alex-user-go/availgrid/internal/search/types"
	"github.com/alex-user-go/availgrid/internal/supplier"
)

const notAvailable = "N/A"

// supplierFor resolves the supplier of an option from its composite id.
// The supplier code is the third pipe-delimited segment.
func supplierFor(lookup supplier.Lookup, optionID string) string {
	parts := strings.Split(optionID, "|")
	if len(parts) < 3 {
		return supplier.DefaultName
	}
	return supplier.Resolve(lookup, parts[2])
}

// Normalize flattens tagged responses into one row per room offer, in
// response → hotel → option → room-group → room nesting order. It is total
// over partial documents: absent collections contribute zero rows. Offers
// whose price does not parse as a number are skipped and counted in the
// second return value so callers can report them.
func Normalize(responses []types.TaggedResponse, lookup supplier.Lookup) ([]types.NormalizedRow, int) {
	var rows []types.NormalizedRow
	skipped := 0

	for _, resp := range responses {
		checkIn, checkOut := notAvailable, notAvailable
		if resp.Meta != nil {
			checkIn = DisplayDate(resp.Meta.CheckIn)
			checkOut = DisplayDate(resp.Meta.CheckOut)
		}

		for _, hotel := range resp.Document.AvailabilityRS.HotelResult {
			for _, option := range hotel.HotelOption {
				supplierName := supplierFor(lookup, option.HotelOptionID)

				for _, group := range option.HotelRooms {
					for _, room := range group {
						price, err := room.Price.Float()
						if err != nil {
							skipped++
							continue
						}

						row := types.NormalizedRow{
							HotelID:         hotel.HotelID.String(),
							Supplier:        supplierName,
							CheckIn:         checkIn,
							CheckOut:        checkOut,
							RoomType:        room.RoomTypeName,
							Meal:            room.MealName,
							Price:           price,
							FreeCancelTill:  notAvailable,
							FreeCancelPrice: notAvailable,
							PaidCancelFrom:  notAvailable,
							PaidCancelPrice: notAvailable,
						}
						applyCancellation(&row, room.CancellationPolicy)
						rows = append(rows, row)
					}
				}
			}
		}
	}

	return rows, skipped
}

// applyCancellation maps the ordered rate tiers onto the refund columns.
// A single tier is a paid-cancellation tier only; with two or more tiers the
// first is the free-cancellation window and the second the paid tier.
func applyCancellation(row *types.NormalizedRow, policies []types.CancellationPolicy) {
	switch {
	case len(policies) == 1:
		row.PaidCancelFrom = orNA(DisplayDate(policies[0].FromDate))
		row.PaidCancelPrice = cancelPrice(policies[0].CancellationPrice)
	case len(policies) >= 2:
		row.FreeCancelTill = orNA(DisplayDate(policies[0].ToDate))
		row.FreeCancelPrice = cancelPrice(policies[0].CancellationPrice)
		row.PaidCancelFrom = orNA(DisplayDate(policies[1].FromDate))
		row.PaidCancelPrice = cancelPrice(policies[1].CancellationPrice)
	}

	row.Refundable = row.FreeCancelTill != notAvailable
	if row.Refundable {
		row.RefundInfo = row.FreeCancelTill
		if row.FreeCancelPrice != notAvailable {
			row.RefundInfo += " — " + row.FreeCancelPrice
		}
	} else {
		row.RefundInfo = "-"
	}
}

func cancelPrice(p *types.StringOrNumber) string {
	if p == nil {
		return notAvailable
	}
	return "$" + p.String()
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
