package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"

	"github.com/aristath/marketscan/internal/report"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"service":    "marketscan",
		"version":    s.version,
		"goroutines": runtime.NumGoroutine(),
		"alloc_mb":   m.Alloc / 1024 / 1024,
	})
}

// handleAnalysis returns the latest full analysis result, falling back
// to the runs table before the first in-process run.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	result := s.store.Latest()
	if result == nil && s.runs != nil {
		stored, err := s.runs.Latest()
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to load stored run")
		} else {
			result = stored
		}
	}
	if result == nil {
		s.writeError(w, http.StatusNotFound, "no analysis available yet")
		return
	}

	// Render through the report serializer so NaN never leaks into
	// the response.
	payload, err := report.Render(result)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to render analysis")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// handleRunAnalysis triggers the daily job out of schedule. The run
// happens in the background; poll /api/v1/analysis for the result.
func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.job == nil || s.sched == nil {
		s.writeError(w, http.StatusServiceUnavailable, "analysis job not available")
		return
	}

	go func() {
		if err := s.sched.RunNow(s.job); err != nil {
			s.log.Error().Err(err).Msg("Triggered analysis failed")
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
	})
}

// handleRegime returns the regime snapshot of the latest run.
func (s *Server) handleRegime(w http.ResponseWriter, r *http.Request) {
	result := s.store.Latest()
	if result == nil {
		s.writeError(w, http.StatusNotFound, "no analysis available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, result.MarketRegime)
}

// handleRankings returns the ranking lists of the latest run.
func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	result := s.store.Latest()
	if result == nil {
		s.writeError(w, http.StatusNotFound, "no analysis available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, result.Rankings)
}

// handleRuns lists stored run summaries, newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run history not available")
		return
	}

	limit := 30
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 365 {
			limit = n
		}
	}

	runs, err := s.runs.List(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list runs")
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
