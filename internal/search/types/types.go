package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DateRange is a check-in/check-out pair driving one upstream query.
// Both fields must be non-empty for the range to be included in a run.
type DateRange struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

// Valid reports whether both dates are present.
func (r DateRange) Valid() bool {
	return r.CheckIn != "" && r.CheckOut != ""
}

// RangeMeta tags a response with the original input date strings
// (not the transformed outbound ones).
type RangeMeta struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

// TaggedResponse is one raw upstream document plus its originating range.
// Immutable after the orchestrator produces it.
type TaggedResponse struct {
	Meta     *RangeMeta           `json:"meta,omitempty"`
	Raw      json.RawMessage      `json:"raw,omitempty"`
	Document AvailabilityDocument `json:"-"`
}

// AvailabilityDocument is the portion of the upstream document the
// aggregation pipeline reads. Absent collections decode to empty slices.
type AvailabilityDocument struct {
	AvailabilityRS AvailabilityRS `json:"AvailabilityRS"`
}

// AvailabilityRS holds the per-hotel availability results.
type AvailabilityRS struct {
	HotelResult []HotelResult `json:"HotelResult"`
}

// HotelResult is one hotel's set of bookable options.
type HotelResult struct {
	HotelID     StringOrNumber `json:"HotelId"`
	HotelOption []HotelOption  `json:"HotelOption"`
}

// HotelOption is one bookable option. The option id is a pipe-delimited
// composite key; the supplier code is its third segment.
type HotelOption struct {
	HotelOptionID string   `json:"HotelOptionId"`
	HotelRooms    [][]Room `json:"HotelRooms"`
}

// Room is a single room offer within an option's room group.
type Room struct {
	RoomTypeName       string               `json:"RoomTypeName"`
	MealName           string               `json:"MealName"`
	Price              StringOrNumber       `json:"Price"`
	CancellationPolicy []CancellationPolicy `json:"CancellationPolicy"`
}

// CancellationPolicy is one rate tier of a room's cancellation schedule.
// CancellationPrice is a pointer so "absent" and "zero" stay distinct.
type CancellationPolicy struct {
	FromDate          string          `json:"FromDate"`
	ToDate            string          `json:"ToDate"`
	CancellationPrice *StringOrNumber `json:"CancellationPrice,omitempty"`
}

// NormalizedRow is one flat row per room offer. Derived, never mutated.
type NormalizedRow struct {
	HotelID         string  `json:"hotelId"`
	Supplier        string  `json:"supplierName"`
	CheckIn         string  `json:"checkIn"`
	CheckOut        string  `json:"checkOut"`
	RoomType        string  `json:"roomType"`
	Meal            string  `json:"meal"`
	Price           float64 `json:"price"`
	Refundable      bool    `json:"refundable"`
	RefundInfo      string  `json:"refundInfo"`
	FreeCancelTill  string  `json:"freeCancelTill"`
	FreeCancelPrice string  `json:"freeCancelPrice"`
	PaidCancelFrom  string  `json:"paidCancelFrom"`
	PaidCancelPrice string  `json:"paidCancelPrice"`
}

// HotelSummaryEntry is the per-hotel view: date labels and suppliers seen,
// both in first-insertion order.
type HotelSummaryEntry struct {
	HotelID   string   `json:"hotelId"`
	Dates     []string `json:"dates"`
	Suppliers []string `json:"suppliers"`
}

// DateMatrixEntry is one row of the coverage matrix: per-supplier counts of
// cheapest-price wins for one date label.
type DateMatrixEntry struct {
	Date   string         `json:"date"`
	Counts map[string]int `json:"counts"`
	Max    int            `json:"max"`
}

// IsLeader reports whether the supplier's cell ties the row maximum.
// A row with no wins has no leaders.
func (e DateMatrixEntry) IsLeader(supplier string) bool {
	return e.Max > 0 && e.Counts[supplier] == e.Max
}

// MatrixResult is the full coverage-matrix view for a run.
type MatrixResult struct {
	Dates            []DateMatrixEntry `json:"dates"`
	Suppliers        []string          `json:"suppliers"`
	NotFound         map[string]int    `json:"notFound"`
	RequestedCount   int               `json:"requestedCount"`
	FoundUniqueCount int               `json:"foundUniqueCount"`
}

// StringOrNumber accepts a JSON string or number and keeps the source text.
// Upstream suppliers disagree on whether ids and prices are quoted.
type StringOrNumber string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringOrNumber) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = StringOrNumber(str)
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = StringOrNumber(num.String())
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s StringOrNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// String returns the raw text.
func (s StringOrNumber) String() string {
	return string(s)
}

// Float parses the value as a number.
func (s StringOrNumber) Float() (float64, error) {
	return strconv.ParseFloat(string(s), 64)
}
