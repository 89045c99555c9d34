package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics holds process-wide counters exposed on /metrics.
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsSuccess    atomic.Uint64
	RequestsFailed     atomic.Uint64
	Analyses           atomic.Uint64
	Syntheses          atomic.Uint64
	Transcriptions     atomic.Uint64
	UpstreamFailures   atomic.Uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{StartTime: time.Now()}

// IncrementAnalyses counts stored sentiment analyses
func IncrementAnalyses() { globalMetrics.Analyses.Add(1) }

// IncrementSyntheses counts successful text-to-speech calls
func IncrementSyntheses() { globalMetrics.Syntheses.Add(1) }

// IncrementTranscriptions counts successful speech-to-text calls
func IncrementTranscriptions() { globalMetrics.Transcriptions.Add(1) }

// IncrementUpstreamFailures counts failed provider calls
func IncrementUpstreamFailures() { globalMetrics.UpstreamFailures.Add(1) }

// GetMetrics returns current metrics
func GetMetrics() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]any{
		"requests_total":       globalMetrics.RequestsTotal.Load(),
		"requests_in_progress": globalMetrics.RequestsInProgress.Load(),
		"requests_success":     globalMetrics.RequestsSuccess.Load(),
		"requests_failed":      globalMetrics.RequestsFailed.Load(),
		"analyses_total":       globalMetrics.Analyses.Load(),
		"syntheses_total":      globalMetrics.Syntheses.Load(),
		"transcriptions_total": globalMetrics.Transcriptions.Load(),
		"upstream_failures":    globalMetrics.UpstreamFailures.Load(),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes": m.Alloc,
			"sys_bytes":   m.Sys,
			"num_gc":      m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		globalMetrics.RequestsTotal.Add(1)
		globalMetrics.RequestsInProgress.Add(1)
		defer globalMetrics.RequestsInProgress.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode < 400 {
			globalMetrics.RequestsSuccess.Add(1)
		} else {
			globalMetrics.RequestsFailed.Add(1)
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
