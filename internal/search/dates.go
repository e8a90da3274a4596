package search

import (
	"strings"

	"github.com/alex-user-go/availgrid/internal/search/types"
)

// OutboundDate rewrites an ISO YYYY-MM-DD date into the MM-DD-YYYY form the
// upstream API expects. Non-ISO input is passed through unchanged.
func OutboundDate(d string) string {
	y, m, day, ok := splitISO(d)
	if !ok {
		return d
	}
	return m + "-" + day + "-" + y
}

// DisplayDate rewrites an ISO YYYY-MM-DD date into the DD-MM-YYYY form used
// in row output. Non-ISO input is passed through unchanged.
func DisplayDate(d string) string {
	y, m, day, ok := splitISO(d)
	if !ok {
		return d
	}
	return day + "-" + m + "-" + y
}

func splitISO(d string) (year, month, day string, ok bool) {
	parts := strings.SplitN(d, "-", 3)
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// DateLabel builds the label identifying one response's date range,
// using the original input strings.
func DateLabel(meta *types.RangeMeta) string {
	if meta == nil {
		return "N/A"
	}
	return meta.CheckIn + " → " + meta.CheckOut
}
