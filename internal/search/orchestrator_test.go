package search_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-user-go/availgrid/internal/obs"
	"github.com/alex-user-go/availgrid/internal/proxy"
	"github.com/alex-user-go/availgrid/internal/search"
	"github.com/alex-user-go/availgrid/internal/search/types"
)

// fakeClient records every proxied request and plays back scripted responses.
type fakeClient struct {
	requests  []proxy.Request
	responses []*proxy.Response
	errs      []error
}

func (f *fakeClient) Do(_ context.Context, req proxy.Request) (*proxy.Response, error) {
	i := len(f.requests)
	f.requests = append(f.requests, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return &proxy.Response{Status: http.StatusOK, Body: json.RawMessage(`{}`)}, nil
}

func okResponse(doc string) *proxy.Response {
	return &proxy.Response{Status: http.StatusOK, Body: json.RawMessage(doc)}
}

func newTestRunner(client proxy.Client) *search.Runner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return search.NewRunner(client, nil, obs.NewMetrics(), logger)
}

func TestRunner_SequentialCallsInOrder(t *testing.T) {
	client := &fakeClient{
		responses: []*proxy.Response{
			okResponse(`{"AvailabilityRS":{"HotelResult":[]}}`),
			okResponse(`{"AvailabilityRS":{"HotelResult":[]}}`),
		},
	}
	runner := newTestRunner(client)

	var transitions []search.Progress
	runner.OnProgress = func(p search.Progress) {
		transitions = append(transitions, p)
	}

	responses, err := runner.Run(context.Background(), search.RunParams{
		Endpoint: "http://upstream/availability",
		DateRanges: []types.DateRange{
			{CheckIn: "2025-03-01", CheckOut: "2025-03-03"},
			{CheckIn: "2025-04-01", CheckOut: "2025-04-05"},
		},
		HotelIDs: "101",
	})
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Len(t, client.requests, 2)

	// Responses carry the original input strings, in input order.
	assert.Equal(t, &types.RangeMeta{CheckIn: "2025-03-01", CheckOut: "2025-03-03"}, responses[0].Meta)
	assert.Equal(t, &types.RangeMeta{CheckIn: "2025-04-01", CheckOut: "2025-04-05"}, responses[1].Meta)

	assert.Equal(t, []search.Progress{
		{Current: 0, Total: 2},
		{Current: 1, Total: 2},
		{Current: 2, Total: 2},
		{Current: 0, Total: 0},
	}, transitions)
	assert.Equal(t, search.Progress{}, runner.Progress())
}

func TestRunner_SkipsInvalidRanges(t *testing.T) {
	client := &fakeClient{}
	runner := newTestRunner(client)

	responses, err := runner.Run(context.Background(), search.RunParams{
		Endpoint: "http://upstream/availability",
		DateRanges: []types.DateRange{
			{CheckIn: "2025-03-01"},
			{CheckIn: "2025-03-01", CheckOut: "2025-03-03"},
			{CheckOut: "2025-03-03"},
			{},
		},
	})
	require.NoError(t, err)
	assert.Len(t, responses, 1)
	assert.Len(t, client.requests, 1)
}

func TestRunner_BuildsRequestBody(t *testing.T) {
	client := &fakeClient{}
	runner := newTestRunner(client)

	template := map[string]any{
		"Request": map[string]any{
			"Currency": "USD",
			"Filters": map[string]any{
				"Refundable": true,
				// Clobbered by the injected value: new key wins on collision.
				"HotelIDs": "999",
			},
		},
		"Echo": "kept",
	}

	_, err := runner.Run(context.Background(), search.RunParams{
		Template: template,
		Endpoint: "http://upstream/availability",
		Token:    "Bearer xyz",
		DateRanges: []types.DateRange{
			{CheckIn: "2025-03-01", CheckOut: "2025-03-03"},
		},
		HotelIDs: "101,102",
	})
	require.NoError(t, err)
	require.Len(t, client.requests, 1)

	req := client.requests[0]
	assert.Equal(t, "http://upstream/availability", req.URL)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, map[string]string{"Authorization": "Bearer xyz"}, req.Headers)

	body, ok := req.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "kept", body["Echo"])

	request, ok := body["Request"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "03-01-2025", request["CheckInDate"])
	assert.Equal(t, "03-03-2025", request["CheckOutDate"])
	assert.Equal(t, "USD", request["Currency"])

	filters, ok := request["Filters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "101,102", filters["HotelIDs"])
	assert.Equal(t, true, filters["Refundable"])

	// The caller's template is cloned, never mutated.
	originalFilters := template["Request"].(map[string]any)["Filters"].(map[string]any)
	assert.Equal(t, "999", originalFilters["HotelIDs"])
	assert.NotContains(t, template["Request"].(map[string]any), "CheckInDate")
}

func TestRunner_NoTokenMeansNoHeaders(t *testing.T) {
	client := &fakeClient{}
	runner := newTestRunner(client)

	_, err := runner.Run(context.Background(), search.RunParams{
		Endpoint:   "http://upstream/availability",
		DateRanges: []types.DateRange{{CheckIn: "2025-03-01", CheckOut: "2025-03-03"}},
	})
	require.NoError(t, err)
	require.Len(t, client.requests, 1)
	assert.Empty(t, client.requests[0].Headers)
}

func TestRunner_AbortsOnFirstFailure(t *testing.T) {
	client := &fakeClient{
		responses: []*proxy.Response{
			okResponse(`{}`),
			{
				Status: http.StatusBadRequest,
				Body:   json.RawMessage(`{"Error":[{"description":"invalid hotel filter"}]}`),
			},
		},
	}
	runner := newTestRunner(client)

	var transitions []search.Progress
	runner.OnProgress = func(p search.Progress) {
		transitions = append(transitions, p)
	}

	responses, err := runner.Run(context.Background(), search.RunParams{
		Endpoint: "http://upstream/availability",
		DateRanges: []types.DateRange{
			{CheckIn: "2025-03-01", CheckOut: "2025-03-03"},
			{CheckIn: "2025-04-01", CheckOut: "2025-04-05"},
			{CheckIn: "2025-05-01", CheckOut: "2025-05-05"},
		},
	})
	require.Error(t, err)
	assert.Nil(t, responses)

	// Exactly two calls issued; the third is never dispatched.
	assert.Len(t, client.requests, 2)

	var upstreamErr *search.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusBadRequest, upstreamErr.Status)
	assert.Equal(t, "invalid hotel filter", upstreamErr.Message)

	// Progress still resets after a failed run.
	assert.Equal(t, search.Progress{}, transitions[len(transitions)-1])
}

func TestRunner_GenericMessageWhenErrorBodyMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not JSON", `oops`},
		{"empty error list", `{"Error":[]}`},
		{"missing description", `{"Error":[{"code":"X"}]}`},
		{"different shape", `{"message":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				responses: []*proxy.Response{
					{Status: http.StatusInternalServerError, Body: json.RawMessage(tt.body)},
				},
			}
			runner := newTestRunner(client)

			_, err := runner.Run(context.Background(), search.RunParams{
				Endpoint:   "http://upstream/availability",
				DateRanges: []types.DateRange{{CheckIn: "2025-03-01", CheckOut: "2025-03-03"}},
			})

			var upstreamErr *search.UpstreamError
			require.ErrorAs(t, err, &upstreamErr)
			assert.Equal(t, "request failed", upstreamErr.Message)
		})
	}
}

func TestRunner_TransportErrorAbortsRun(t *testing.T) {
	client := &fakeClient{errs: []error{io.ErrUnexpectedEOF}}
	runner := newTestRunner(client)

	responses, err := runner.Run(context.Background(), search.RunParams{
		Endpoint:   "http://upstream/availability",
		DateRanges: []types.DateRange{{CheckIn: "2025-03-01", CheckOut: "2025-03-03"}},
	})
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Nil(t, responses)
}

func TestRunner_UnparsableSuccessBodyTreatedAsEmpty(t *testing.T) {
	client := &fakeClient{
		responses: []*proxy.Response{
			// 2xx but not the expected shape: the run continues with an
			// empty document rather than failing.
			{Status: http.StatusOK, Body: json.RawMessage(`{"AvailabilityRS":"bogus"}`)},
		},
	}
	runner := newTestRunner(client)

	responses, err := runner.Run(context.Background(), search.RunParams{
		Endpoint:   "http://upstream/availability",
		DateRanges: []types.DateRange{{CheckIn: "2025-03-01", CheckOut: "2025-03-03"}},
	})
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Empty(t, responses[0].Document.AvailabilityRS.HotelResult)
	assert.Equal(t, json.RawMessage(`{"AvailabilityRS":"bogus"}`), responses[0].Raw)
}

func TestRunner_ZeroValidRangesIssuesNoCalls(t *testing.T) {
	client := &fakeClient{}
	runner := newTestRunner(client)

	responses, err := runner.Run(context.Background(), search.RunParams{
		Endpoint:   "http://upstream/availability",
		DateRanges: []types.DateRange{{CheckIn: "2025-03-01"}},
	})
	require.NoError(t, err)
	assert.Empty(t, responses)
	assert.Empty(t, client.requests)
}
