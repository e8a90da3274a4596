package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/alex-user-go/availgrid/internal/obs"
	"github.com/alex-user-go/availgrid/internal/proxy"
	"github.com/alex-user-go/availgrid/internal/search/types"
)

// UpstreamError is returned when the upstream availability service answers a
// non-2xx status. Message carries the description extracted from the error
// body when one was present.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

const genericUpstreamMessage = "request failed"

// Progress is the observable state of an in-flight run.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// RunParams describes one multi-search run.
type RunParams struct {
	// Template is the caller's request body. It is cloned per date range and
	// never mutated.
	Template map[string]any
	Endpoint string
	// Method defaults to POST when empty.
	Method string
	// Token, when non-empty, is forwarded verbatim as the Authorization header.
	Token      string
	DateRanges []types.DateRange
	// HotelIDs is the comma-delimited id string, passed through unvalidated.
	HotelIDs string
}

// Runner issues one upstream call per valid date range, sequentially and in
// input order, and tags each successful response with its range. The first
// failed call aborts the run.
type Runner struct {
	client  proxy.Client
	limiter *rate.Limiter
	metrics *obs.Metrics
	logger  *slog.Logger

	mu       sync.Mutex
	progress Progress

	// OnProgress, when set, observes every progress transition including the
	// final reset. Called from the run's goroutine.
	OnProgress func(Progress)
}

// NewRunner creates a Runner. limiter may be nil to disable upstream pacing.
func NewRunner(client proxy.Client, limiter *rate.Limiter, metrics *obs.Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		client:  client,
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
	}
}

// Progress returns a snapshot of the in-flight run state. Outside a run it
// is {0, 0}.
func (r *Runner) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (r *Runner) setProgress(p Progress) {
	r.mu.Lock()
	r.progress = p
	r.mu.Unlock()
	if r.OnProgress != nil {
		r.OnProgress(p)
	}
}

// Run executes the multi-search. The returned responses preserve the input
// range order. A failed call aborts immediately: no partial result set is
// returned.
func (r *Runner) Run(ctx context.Context, p RunParams) ([]types.TaggedResponse, error) {
	r.metrics.IncRuns()

	valid := make([]types.DateRange, 0, len(p.DateRanges))
	for _, dr := range p.DateRanges {
		if dr.Valid() {
			valid = append(valid, dr)
		}
	}

	total := len(valid)
	r.setProgress(Progress{Current: 0, Total: total})
	defer r.setProgress(Progress{})

	method := p.Method
	if method == "" {
		method = http.MethodPost
	}

	headers := map[string]string{}
	if p.Token != "" {
		headers["Authorization"] = p.Token
	}

	responses := make([]types.TaggedResponse, 0, total)

	for i, dr := range valid {
		r.setProgress(Progress{Current: i + 1, Total: total})

		body, err := buildRequestBody(p.Template, dr, p.HotelIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to build request body: %w", err)
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		r.metrics.IncUpstreamCalls()
		resp, err := r.client.Do(ctx, proxy.Request{
			URL:     p.Endpoint,
			Method:  method,
			Headers: headers,
			Body:    body,
		})
		if err != nil {
			r.metrics.IncUpstreamErrors()
			return nil, fmt.Errorf("call %d/%d failed: %w", i+1, total, err)
		}

		if !resp.OK() {
			r.metrics.IncUpstreamErrors()
			msg := extractErrorDescription(resp.Body)
			r.logger.Error("upstream call failed",
				"status", resp.Status,
				"check_in", dr.CheckIn,
				"check_out", dr.CheckOut,
				"message", msg,
			)
			return nil, &UpstreamError{Status: resp.Status, Message: msg}
		}

		tagged := types.TaggedResponse{
			Meta: &types.RangeMeta{CheckIn: dr.CheckIn, CheckOut: dr.CheckOut},
			Raw:  resp.Body,
		}
		if err := json.Unmarshal(resp.Body, &tagged.Document); err != nil {
			// Malformed documents contribute zero rows rather than failing
			// the run.
			r.logger.Warn("upstream document not parseable, treating as empty",
				"check_in", dr.CheckIn,
				"check_out", dr.CheckOut,
				"error", err,
			)
			tagged.Document = types.AvailabilityDocument{}
		}
		responses = append(responses, tagged)
	}

	return responses, nil
}

// buildRequestBody deep-clones the template and merges the per-range fields
// into its Request object. Existing Request and Filters keys are preserved;
// the injected keys win on collision.
func buildRequestBody(template map[string]any, dr types.DateRange, hotelIDs string) (map[string]any, error) {
	body, err := cloneTemplate(template)
	if err != nil {
		return nil, err
	}

	request := map[string]any{}
	if existing, ok := body["Request"].(map[string]any); ok {
		for k, v := range existing {
			request[k] = v
		}
	}

	filters := map[string]any{}
	if existing, ok := request["Filters"].(map[string]any); ok {
		for k, v := range existing {
			filters[k] = v
		}
	}
	filters["HotelIDs"] = hotelIDs

	request["CheckInDate"] = OutboundDate(dr.CheckIn)
	request["CheckOutDate"] = OutboundDate(dr.CheckOut)
	request["Filters"] = filters

	body["Request"] = request
	return body, nil
}

// cloneTemplate deep-clones via a JSON round-trip so per-range mutations
// never leak into the caller's template.
func cloneTemplate(template map[string]any) (map[string]any, error) {
	if template == nil {
		return map[string]any{}, nil
	}
	encoded, err := json.Marshal(template)
	if err != nil {
		return nil, err
	}
	var clone map[string]any
	if err := json.Unmarshal(encoded, &clone); err != nil {
		return nil, err
	}
	return clone, nil
}

// extractErrorDescription pulls Error[0].description out of an upstream error
// body, falling back to a generic message.
func extractErrorDescription(body json.RawMessage) string {
	var payload struct {
		Error []struct {
			Description string `json:"description"`
		} `json:"Error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil &&
		len(payload.Error) > 0 && payload.Error[0].Description != "" {
		return payload.Error[0].Description
	}
	return genericUpstreamMessage
}
