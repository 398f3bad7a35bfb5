// Package apitest provides an in-memory fake of the sample API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fentz26/labtrack/internal/api"
	"github.com/fentz26/labtrack/internal/models"
	"github.com/google/uuid"
)

// Server is a fake sample API backed by a map.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	samples  map[string]models.SampleRecord
	failNext int
	failCode int
	hits     map[string]int
	now      func() time.Time
}

// NewServer starts a fake API seeded with samples. Close it when done.
func NewServer(seed ...models.SampleRecord) *Server {
	s := &Server{
		samples: make(map[string]models.SampleRecord),
		hits:    make(map[string]int),
		now:     time.Now,
	}
	for _, rec := range seed {
		s.samples[rec.SampleID] = rec
	}

	mux := http.NewServeMux()
	mux.HandleFunc(api.PathSamples, s.handleSamples)
	mux.HandleFunc(api.PathUpdateStatus, s.handleUpdateStatus)
	mux.HandleFunc(api.PathAddSample, s.handleAddSample)
	s.Server = httptest.NewServer(mux)
	return s
}

// FailNext makes the next n requests answer with code.
func (s *Server) FailNext(n, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failCode = code
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Put inserts or replaces a sample directly.
func (s *Server) Put(rec models.SampleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[rec.SampleID] = rec
}

// SetStatus changes a sample's status directly, as another client would.
func (s *Server) SetStatus(id string, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.samples[id]; ok {
		s.applyStatus(&rec, status)
		s.samples[id] = rec
	}
}

// Sample returns the stored sample.
func (s *Server) Sample(id string) (models.SampleRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.samples[id]
	return rec, ok
}

// intercept counts the hit and reports whether a failure was injected.
func (s *Server) intercept(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[r.URL.Path]++
	if s.failNext > 0 {
		s.failNext--
		writeJSON(w, s.failCode, map[string]string{"error": "injected failure"})
		return true
	}
	return false
}

// handleSamples handles GET /api/samples
func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.intercept(w, r) {
		return
	}

	s.mu.Lock()
	out := make([]models.SampleRecord, 0, len(s.samples))
	for _, rec := range s.samples {
		out = append(out, rec)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SampleID < out[j].SampleID })
	writeJSON(w, http.StatusOK, out)
}

// handleUpdateStatus handles POST /api/update-status
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.intercept(w, r) {
		return
	}

	var req struct {
		SampleID  string  `json:"sampleID"`
		NewStatus string  `json:"newStatus"`
		ClaimedBy *string `json:"claimedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.samples[req.SampleID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "sample not found"})
		return
	}

	switch {
	case req.ClaimedBy != nil:
		by := *req.ClaimedBy
		rec.ClaimedBy = &by
		rec.Timestamp = models.NewTime(s.now())
	case req.NewStatus != "":
		status := models.Status(req.NewStatus)
		if !status.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		s.applyStatus(&rec, status)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "newStatus or claimedBy required"})
		return
	}

	s.samples[rec.SampleID] = rec
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sample " + rec.SampleID + " updated"})
}

// handleAddSample handles POST /api/add-sample
func (s *Server) handleAddSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.intercept(w, r) {
		return
	}

	var req models.NewSample
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := "S-" + strings.ToUpper(uuid.New().String()[:8])
	s.samples[id] = models.SampleRecord{
		SampleID:    id,
		PatientName: req.PatientName,
		PatientID:   req.PatientID,
		TestType:    req.TestType,
		Source:      req.Source,
		Status:      models.StatusReceived,
		Timestamp:   models.NewTime(s.now()),
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Sample added", "sampleID": id})
}

// applyStatus sets status and the timing fields the real backend maintains.
// Caller holds s.mu.
func (s *Server) applyStatus(rec *models.SampleRecord, status models.Status) {
	now := s.now()
	if rec.TATStart == nil {
		start := rec.Timestamp
		rec.TATStart = &start
	}
	rec.Status = status
	rec.Timestamp = models.NewTime(now)
	if status.IsTerminal() {
		end := models.NewTime(now)
		rec.TATEnd = &end
		minutes := end.Sub(rec.TATStart.Time).Minutes()
		rec.TurnaroundTime = &minutes
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
