package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/sitewatch/sitewatch/internal/httpapi/middleware"
	"github.com/sitewatch/sitewatch/internal/obs"
	"github.com/sitewatch/sitewatch/internal/runner"
)

// Server exposes the monitoring core over HTTP for the dashboard.
type Server struct {
	Logger  *zap.Logger
	Service *runner.Service
}

func NewServer(l *zap.Logger, svc *runner.Service) *Server {
	return &Server{Logger: l, Service: svc}
}

// Router builds the chi handler. Read routes accept public or admin keys;
// mutating routes require an admin key. With no keys configured everything
// is open (local dev).
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		}))
	} else {
		r.Use(cors.AllowAll().Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", obs.MetricsHandler())

	// read routes
	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Use(apimw.RateLimit(pubRPM, pubBurst))

		r.Get("/api/status", s.handleStatus)
		r.Get("/api/runs", s.handleRecentRuns)
		r.Get("/api/runs/{id}", s.handleRunDetails)
		r.Get("/api/progress/{runID}", s.handleProgress)
		r.Get("/api/uptime", s.handleUptime)
		r.Get("/api/incidents", s.handleIncidents)
		r.Get("/api/disk-usage", s.handleDiskUsage)
	})

	// admin routes
	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Use(apimw.RateLimit(admRPM, admBurst))

		r.Post("/api/runs", s.handleStartRun)
		r.Post("/api/progress/{runID}/cancel", s.handleCancelRun)
		r.Post("/api/incidents/{id}/resolve", s.handleResolveIncident)
		r.Post("/api/cleanup", s.handleCleanup)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var p struct {
		TriggeredBy string `json:"triggered_by"`
	}
	_ = json.NewDecoder(r.Body).Decode(&p) // empty body is fine
	if p.TriggeredBy == "" {
		p.TriggeredBy = "manual"
	}

	id := s.Service.StartRun(p.TriggeredBy)
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": id})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	p, ok := s.Service.Progress(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	resp := struct {
		runner.Progress
		EstimatedRemainingMS *int64 `json:"estimated_remaining_ms,omitempty"`
	}{Progress: p}
	if p.Status == runner.RunRunning {
		if est, ok := s.Service.EstimateRemaining(p); ok {
			ms := est.Milliseconds()
			resp.EstimatedRemainingMS = &ms
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	var p struct {
		CancelledBy string `json:"cancelled_by"`
	}
	_ = json.NewDecoder(r.Body).Decode(&p)
	if p.CancelledBy == "" {
		p.CancelledBy = "api"
	}

	switch s.Service.CancelRun(id, p.CancelledBy) {
	case runner.CancelOK:
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
	case runner.CancelAlreadyFinished:
		writeError(w, http.StatusConflict, "run already finished")
	default:
		writeError(w, http.StatusNotFound, "run not found")
	}
}

func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	runs, err := s.Service.RecentRuns(r.Context(), limit)
	if err != nil {
		s.Logger.Error("recent_runs_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad run id")
		return
	}
	run, err := s.Service.RunDetails(r.Context(), id)
	if err != nil {
		s.Logger.Error("run_details_error", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleUptime(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	stats, err := s.Service.UptimeStats(r.Context(), days)
	if err != nil {
		s.Logger.Error("uptime_stats_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "all"
	}
	incidents, err := s.Service.Incidents(r.Context(), status)
	if err != nil {
		s.Logger.Error("incidents_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, incidents)
}

func (s *Server) handleResolveIncident(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad incident id")
		return
	}
	var p struct {
		ResolvedBy string `json:"resolved_by"`
		Notes      string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.ResolvedBy == "" {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	ok, err := s.Service.ResolveIncident(r.Context(), id, p.ResolvedBy, p.Notes)
	if err != nil {
		s.Logger.Error("resolve_incident_error", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no open incident with that id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"resolved": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Service.CurrentStatus(r.Context())
	if err != nil {
		s.Logger.Error("status_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res := s.Service.RunCleanupNow()
	s.Logger.Info("manual_cleanup",
		zap.Int64("freed_bytes", res.TotalFreed),
		zap.Duration("took", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDiskUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Service.DiskUsage())
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
