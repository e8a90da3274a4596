// Command upstream is a mock hotel-availability service for local
// development. It answers the same document shape the real upstream does, so
// the server and CLI can be pointed at it end to end.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

type availabilityRequest struct {
	Request struct {
		CheckInDate  string `json:"CheckInDate"`
		CheckOutDate string `json:"CheckOutDate"`
		Filters      struct {
			HotelIDs string `json:"HotelIDs"`
		} `json:"Filters"`
	} `json:"Request"`
}

type upstream struct {
	rng      *rand.Rand
	failRate float64
	logger   *slog.Logger
}

// supplier codes that appear as the third segment of generated option ids.
var supplierCodes = []string{"HTB", "GTA", "TBO", "EAN", "ZZZ"}

func (u *upstream) availability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		u.writeJSON(w, http.StatusBadRequest, map[string]any{
			"Error": []map[string]string{{"description": "malformed availability request"}},
		})
		return
	}

	// Simulate random latency (50ms to 200ms)
	latency := time.Duration(50+u.rng.Intn(150)) * time.Millisecond
	select {
	case <-time.After(latency):
	case <-r.Context().Done():
		return
	}

	if u.rng.Float64() < u.failRate {
		u.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"Error": []map[string]string{{"description": "no availability for the requested dates"}},
		})
		return
	}

	ids := splitIDs(req.Request.Filters.HotelIDs)
	if len(ids) == 0 {
		ids = []string{"101", "102", "103"}
	}

	hotels := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		hotels = append(hotels, u.hotelResult(id, req.Request.CheckInDate))
	}

	u.writeJSON(w, http.StatusOK, map[string]any{
		"AvailabilityRS": map[string]any{
			"HotelResult": hotels,
		},
	})
}

// hotelResult generates deterministic options per hotel: same id and date
// always price the same, which makes the coverage matrix stable across runs.
func (u *upstream) hotelResult(hotelID, checkIn string) map[string]any {
	seed := int64(0)
	for _, c := range hotelID + checkIn {
		seed = seed*31 + int64(c)
	}
	rng := rand.New(rand.NewSource(seed))

	optionCount := 2 + rng.Intn(len(supplierCodes)-2)
	options := make([]map[string]any, 0, optionCount)
	for i := 0; i < optionCount; i++ {
		code := supplierCodes[(rng.Intn(len(supplierCodes))+i)%len(supplierCodes)]
		base := 80 + rng.Float64()*120

		rooms := []map[string]any{
			{
				"RoomTypeName":       "Double Standard",
				"MealName":           "Room Only",
				"Price":              round2(base),
				"CancellationPolicy": cancellationTiers(rng, checkIn, base),
			},
			{
				"RoomTypeName":       "Double Superior",
				"MealName":           "Bed & Breakfast",
				"Price":              round2(base * 1.25),
				"CancellationPolicy": cancellationTiers(rng, checkIn, base*1.25),
			},
		}

		options = append(options, map[string]any{
			"HotelOptionId": strings.Join([]string{hotelID, strconv.Itoa(rng.Int()), code, "RO", "NRF"}, "|"),
			"HotelRooms":    []any{rooms},
		})
	}

	return map[string]any{
		"HotelId":     hotelID,
		"HotelOption": options,
	}
}

// cancellationTiers returns zero, one, or two rate tiers like real suppliers do.
func cancellationTiers(rng *rand.Rand, checkIn string, price float64) []map[string]any {
	switch rng.Intn(3) {
	case 0:
		return []map[string]any{}
	case 1:
		return []map[string]any{
			{"FromDate": checkIn, "CancellationPrice": round2(price)},
		}
	default:
		return []map[string]any{
			{"FromDate": "", "ToDate": checkIn, "CancellationPrice": 0},
			{"FromDate": checkIn, "CancellationPrice": round2(price)},
		}
	}
}

func (u *upstream) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		u.logger.Error("failed to write response", "error", err)
	}
}

func splitIDs(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func round2(f float64) float64 {
	return float64(int(f*100)) / 100
}

func main() {
	port := getEnv("PORT", "9001")
	failRate, _ := strconv.ParseFloat(getEnv("FAIL_RATE", "0.1"), 64)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	u := &upstream{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		failRate: failRate,
		logger:   logger,
	}

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("POST /availability", u.availability)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write healthz response", "error", err)
		}
	})

	// Configure server
	addr := ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("mock upstream listening", "addr", addr, "fail_rate", failRate)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
