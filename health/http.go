package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// CheckResponse is the JSON form of a Result.
type CheckResponse struct {
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ReportResponse is the JSON form of a Report.
type ReportResponse struct {
	Status    Status                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks"`
}

// NewReportResponse converts r for JSON output.
func NewReportResponse(r Report) ReportResponse {
	out := ReportResponse{
		Status:    r.Status,
		Timestamp: r.Checked.UTC().Format(time.RFC3339),
		Checks:    make(map[string]CheckResponse, len(r.Checks)),
	}
	for name, res := range r.Checks {
		c := CheckResponse{
			Status:   res.Status,
			Message:  res.Message,
			Duration: res.Duration.String(),
			Details:  res.Details,
		}
		if res.Err != nil {
			c.Error = res.Err.Error()
		}
		out.Checks[name] = c
	}
	return out
}

// statusCode maps a status to an HTTP code. Degraded still serves traffic.
func statusCode(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// LivenessHandler answers 200 while the process is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// ReadinessHandler answers 200 unless a check is unhealthy.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := agg.Run(r.Context())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(statusCode(report.Status))
		_, _ = w.Write([]byte(report.Status.String()))
	}
}

// DetailedHandler answers with the full report as JSON.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := agg.Run(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode(report.Status))
		_ = json.NewEncoder(w).Encode(NewReportResponse(report))
	}
}

// Mount registers /livez, /readyz and /health on r.
func Mount(r chi.Router, agg *Aggregator) {
	r.Get("/livez", LivenessHandler())
	r.Get("/readyz", ReadinessHandler(agg))
	r.Get("/health", DetailedHandler(agg))
}
