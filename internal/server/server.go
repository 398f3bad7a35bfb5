// Package server exposes a read-only HTTP view of a running watcher.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/reconcile"
	"github.com/fentz26/labtrack/internal/view"
	"go.uber.org/zap"
)

// Version is reported by /health. It is set at build time via -ldflags.
var Version = "0.1.0"

// Source provides the current local collection.
type Source interface {
	Snapshot() reconcile.Snapshot
}

// Store is the local database as seen by the server.
type Store interface {
	Ping(ctx context.Context) error
	ListAudit(sampleID string, limit int) ([]models.AuditEntry, error)
}

// Server serves health, sample tables, the audit trail and metrics.
type Server struct {
	role    models.Role
	samples Source
	store   Store
	metrics http.Handler
	addr    string
	logger  *zap.Logger
	now     func() time.Time
	server  *http.Server
}

// New creates a server for role. metrics may be nil.
func New(role models.Role, samples Source, store Store, metrics http.Handler, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		role:    role,
		samples: samples,
		store:   store,
		metrics: metrics,
		addr:    addr,
		logger:  logger,
		now:     time.Now,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/samples", s.handleSamples)
	mux.HandleFunc("/audit", s.handleAudit)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("status server listening", zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK       bool   `json:"ok"`
	DB       string `json:"db"`
	API      string `json:"api"`
	Role     string `json:"role"`
	Samples  int    `json:"samples"`
	LastSync string `json:"last_sync,omitempty"`
	Version  string `json:"version"`
	Time     string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.samples.Snapshot()
	resp := HealthResponse{
		OK:      true,
		DB:      "ok",
		API:     apiState(snap),
		Role:    string(s.role),
		Samples: len(snap.All),
		Version: Version,
		Time:    s.now().UTC().Format(time.RFC3339),
	}
	if !snap.SyncedAt.IsZero() {
		resp.LastSync = snap.SyncedAt.UTC().Format(time.RFC3339)
	}

	status := http.StatusOK
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		resp.OK = false
		resp.DB = "error: " + err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

func apiState(snap reconcile.Snapshot) string {
	switch {
	case snap.Online():
		return "online"
	case snap.Err != nil:
		return "offline"
	default:
		return "loading"
	}
}

// SampleRow is one row of GET /samples, already masked for the role.
type SampleRow struct {
	SampleID    string   `json:"sampleID"`
	PatientName string   `json:"patientName"`
	PatientID   string   `json:"patientID"`
	TestType    string   `json:"testType"`
	Source      string   `json:"source"`
	Status      string   `json:"status"`
	Timestamp   string   `json:"timestamp"`
	ClaimedBy   *string  `json:"claimedBy,omitempty"`
	Turnaround  *float64 `json:"turnaroundTime,omitempty"`
}

// SamplesResponse is the body of GET /samples.
type SamplesResponse struct {
	Title      string      `json:"title"`
	Window     string      `json:"window"`
	Search     string      `json:"search,omitempty"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	Total      int         `json:"total"`
	Rows       []SampleRow `json:"rows"`
	Message    string      `json:"message,omitempty"`
}

// handleSamples serves GET /samples?view=active|done&window=6h&search=x&page=2
func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	active, done := view.Tables(s.role)
	table := active
	switch strings.ToLower(q.Get("view")) {
	case "", "active":
	case "done":
		table = done
	default:
		http.Error(w, "view must be active or done", http.StatusBadRequest)
		return
	}

	query := view.DefaultQuery()
	if raw := q.Get("window"); raw != "" {
		win, err := view.ParseWindow(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		query.Window = win
	}
	query.Search = q.Get("search")

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "page must be a number", http.StatusBadRequest)
			return
		}
		page = n
	}

	part := table.Partition(s.samples.Snapshot())
	rows := view.Derive(part.Records(), table, query, s.now())
	p := view.Paginate(rows, table.PageSize, page)

	resp := SamplesResponse{
		Title:      table.Title,
		Window:     query.Window.String(),
		Search:     query.Search,
		Page:       p.Number,
		TotalPages: p.TotalPages,
		Total:      p.Total,
		Rows:       make([]SampleRow, 0, len(p.Rows)),
	}
	if p.Empty() {
		resp.Message = view.EmptyMessage
	}
	for _, row := range p.Rows {
		rec := row.Record
		resp.Rows = append(resp.Rows, SampleRow{
			SampleID:    rec.SampleID,
			PatientName: row.PatientName,
			PatientID:   row.PatientID,
			TestType:    rec.TestType,
			Source:      rec.Source,
			Status:      string(rec.Status),
			Timestamp:   rec.Timestamp.String(),
			ClaimedBy:   rec.ClaimedBy,
			Turnaround:  rec.TurnaroundTime,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleAudit serves GET /audit?sample=ID&limit=N
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive number", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.store.ListAudit(r.URL.Query().Get("sample"), limit)
	if err != nil {
		s.logger.Error("list audit", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
