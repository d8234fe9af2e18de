// Package web provides a simple web UI and JSON API over run history.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/bidscout/bidscout/internal/db"
)

// Server provides the web UI handlers and state.
type Server struct {
	store *db.Store
}

// NewServer creates a new web server over the run store.
func NewServer(store *db.Store) *Server {
	return &Server{store: store}
}

//go:embed templates/*.html
var templatesFS embed.FS

// Routes returns the router for the web UI and API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/runs/{id}/events", s.handleListEvents)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	records, err := s.store.ListRuns(r.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, records); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListRuns(r.Context(), 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runsResponse(records))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toRunJSON(record))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	if _, err := s.store.GetRun(r.Context(), runID); err != nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	events, err := s.store.ListEvents(r.Context(), runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]eventJSON, 0, len(events))
	for _, ev := range events {
		out = append(out, eventJSON{At: ev.At, Stage: ev.Stage, Message: ev.Message})
	}
	writeJSON(w, http.StatusOK, out)
}

type runJSON struct {
	RunID             string   `json:"run_id"`
	CreatedAt         string   `json:"created_at"`
	FinishedAt        string   `json:"finished_at,omitempty"`
	RFPPath           string   `json:"rfp_path"`
	Company           string   `json:"company"`
	Status            string   `json:"status"`
	Iterations        int      `json:"iterations"`
	CoverageScore     float64  `json:"coverage_score"`
	RequirementsCount int      `json:"requirements_count"`
	EvidenceCount     int      `json:"evidence_count"`
	Errors            []string `json:"errors,omitempty"`
}

type eventJSON struct {
	At      string `json:"at"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func runsResponse(records []db.RunRecord) []runJSON {
	out := make([]runJSON, 0, len(records))
	for _, record := range records {
		out = append(out, toRunJSON(record))
	}
	return out
}

func toRunJSON(record db.RunRecord) runJSON {
	return runJSON{
		RunID:             record.RunID,
		CreatedAt:         record.CreatedAt,
		FinishedAt:        record.FinishedAt,
		RFPPath:           record.RFPPath,
		Company:           record.Company,
		Status:            record.Status,
		Iterations:        record.Iterations,
		CoverageScore:     record.CoverageScore,
		RequirementsCount: record.RequirementsCount,
		EvidenceCount:     record.EvidenceCount,
		Errors:            record.Errors,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
