package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler exposes the pass-through proxy over HTTP. Non-POST methods are
// rejected by the route pattern; the handler itself only validates the
// target URL and relays whatever the upstream answers.
func Handler(client Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		if req.URL == "" {
			writeError(w, http.StatusBadRequest, "missing target URL")
			return
		}

		resp, err := client.Do(r.Context(), req)
		if err != nil {
			logger.Error("proxy call failed", "url", req.URL, "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.Status)
		if _, err := w.Write(resp.Body); err != nil {
			logger.Error("failed to write proxy response", "error", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
