package handler

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/alex-user-go/availgrid/internal/middleware"
	"github.com/alex-user-go/availgrid/internal/obs"
	"github.com/alex-user-go/availgrid/internal/search"
	"github.com/alex-user-go/availgrid/internal/search/ratelimit"
	"github.com/alex-user-go/availgrid/internal/search/types"
	"github.com/alex-user-go/availgrid/internal/supplier"
)

// Handler handles HTTP requests.
type Handler struct {
	runner      *search.Runner
	lookup      supplier.Lookup
	cache       *gocache.Cache
	rateLimiter *ratelimit.Limiter
	metrics     *obs.Metrics
	logger      *slog.Logger
}

// New creates a new Handler.
func New(
	runner *search.Runner,
	lookup supplier.Lookup,
	cacheTTL time.Duration,
	rateLimiter *ratelimit.Limiter,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		runner:      runner,
		lookup:      lookup,
		cache:       gocache.New(cacheTTL, 2*cacheTTL),
		rateLimiter: rateLimiter,
		metrics:     metrics,
		logger:      logger,
	}
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Endpoint   string            `json:"endpoint"`
	Method     string            `json:"method,omitempty"`
	Token      string            `json:"token,omitempty"`
	HotelIDs   string            `json:"hotelIds"`
	DateRanges []types.DateRange `json:"dateRanges"`
	Body       map[string]any    `json:"body,omitempty"`
}

// SearchResponse is the complete API response.
type SearchResponse struct {
	Search    SearchInfo                `json:"search"`
	Stats     SearchStats               `json:"stats"`
	Rows      []types.NormalizedRow     `json:"rows"`
	Summary   []types.HotelSummaryEntry `json:"summary"`
	Matrix    types.MatrixResult        `json:"matrix"`
	Responses []types.TaggedResponse    `json:"responses"`
}

// SearchInfo echoes the search parameters.
type SearchInfo struct {
	Endpoint   string            `json:"endpoint"`
	HotelIDs   string            `json:"hotelIds"`
	DateRanges []types.DateRange `json:"dateRanges"`
}

// SearchStats contains run statistics.
type SearchStats struct {
	CallsMade     int    `json:"calls_made"`
	SkippedOffers int    `json:"skipped_offers"`
	Cache         string `json:"cache"`
	DurationMs    int64  `json:"duration_ms"`
}

// runResult is the cacheable portion of a finished run.
type runResult struct {
	Rows      []types.NormalizedRow
	Summary   []types.HotelSummaryEntry
	Matrix    types.MatrixResult
	Responses []types.TaggedResponse
	Skipped   int
}

// SearchHandler handles POST /search requests.
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	h.metrics.IncRequests()
	requestID := middleware.RequestID(r.Context())

	ip := ExtractIP(r)
	if !h.rateLimiter.Allow(ip) {
		h.logger.Warn("rate limit exceeded", "request_id", requestID, "ip", ip)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("invalid request body", "request_id", requestID, "error", err, "ip", ip)
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Endpoint) == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	sortState, err := parseSortParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := cacheKey(req)
	cacheStatus := "miss"

	var result *runResult
	if cached, found := h.cache.Get(key); found {
		result = cached.(*runResult)
		cacheStatus = "hit"
		h.metrics.IncCacheHits()
	} else {
		responses, err := h.runner.Run(r.Context(), search.RunParams{
			Template:   req.Body,
			Endpoint:   req.Endpoint,
			Method:     req.Method,
			Token:      req.Token,
			DateRanges: req.DateRanges,
			HotelIDs:   req.HotelIDs,
		})
		if err != nil {
			var upstreamErr *search.UpstreamError
			if errors.As(err, &upstreamErr) {
				h.logger.Error("run aborted by upstream failure",
					"request_id", requestID,
					"status", upstreamErr.Status,
					"message", upstreamErr.Message,
				)
				writeError(w, http.StatusBadGateway, upstreamErr.Message)
				return
			}
			h.logger.Error("run failed", "request_id", requestID, "error", err)
			writeError(w, http.StatusBadGateway, "search failed")
			return
		}

		rows, skipped := search.Normalize(responses, h.lookup)
		if skipped > 0 {
			h.metrics.AddSkippedOffers(skipped)
			h.logger.Warn("offers skipped for unparsable prices",
				"request_id", requestID, "count", skipped)
		}

		result = &runResult{
			Rows:      rows,
			Summary:   search.Summarize(responses, h.lookup),
			Matrix:    search.BuildMatrix(responses, req.HotelIDs, h.lookup),
			Responses: responses,
			Skipped:   skipped,
		}
		h.cache.SetDefault(key, result)
		h.metrics.ObserveRunDuration(time.Since(startTime).Seconds())
	}

	response := SearchResponse{
		Search: SearchInfo{
			Endpoint:   req.Endpoint,
			HotelIDs:   req.HotelIDs,
			DateRanges: req.DateRanges,
		},
		Stats: SearchStats{
			CallsMade:     len(result.Responses),
			SkippedOffers: result.Skipped,
			Cache:         cacheStatus,
			DurationMs:    time.Since(startTime).Milliseconds(),
		},
		Rows:      sortState.Apply(result.Rows),
		Summary:   result.Summary,
		Matrix:    result.Matrix,
		Responses: result.Responses,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Can't change status after WriteHeader, just log
		h.logger.Error("failed to encode response", "error", err)
	}
}

// ProgressHandler handles GET /progress requests.
func (h *Handler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.runner.Progress()); err != nil {
		h.logger.Error("failed to encode progress", "error", err)
	}
}

// parseSortParams reads the optional sort/dir query parameters.
func parseSortParams(r *http.Request) (search.SortState, error) {
	query := r.URL.Query()

	key := query.Get("sort")
	if key == "" {
		return search.SortState{}, nil
	}
	if key != string(search.SortHotel) && key != string(search.SortPrice) {
		return search.SortState{}, fmt.Errorf("sort must be one of hotelId, price")
	}

	dir := query.Get("dir")
	switch dir {
	case "", string(search.Ascending):
		return search.SortState{Key: search.SortKey(key), Dir: search.Ascending}, nil
	case string(search.Descending):
		return search.SortState{Key: search.SortKey(key), Dir: search.Descending}, nil
	default:
		return search.SortState{}, fmt.Errorf("dir must be one of asc, desc")
	}
}

// cacheKey digests the full request so any parameter change misses the cache.
func cacheKey(req SearchRequest) string {
	encoded, _ := json.Marshal(req)
	return fmt.Sprintf("%x", sha256.Sum256(encoded))
}

// ExtractIP extracts the client IP from the request.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
