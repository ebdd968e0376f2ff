package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/civicsetu/civic-voice-api/api"
	"github.com/civicsetu/civic-voice-api/config"
)

// MetricsHandler serves the request metrics summary for the staff dashboard
type MetricsHandler struct{}

// GetMetricsSummary returns per-route counts and timings since process start
func (m MetricsHandler) GetMetricsSummary(w http.ResponseWriter, r *http.Request) {
	summary := api.Summary()
	if summary == nil {
		config.ErrorStatus("metrics collection is not initialized", http.StatusServiceUnavailable, w, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(summary)
}
