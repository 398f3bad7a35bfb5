package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fentz26/labtrack/internal/api"
	"github.com/fentz26/labtrack/internal/api/apitest"
	"github.com/fentz26/labtrack/internal/models"
)

func seedSample(id string, status models.Status) models.SampleRecord {
	return models.SampleRecord{
		SampleID:    id,
		PatientName: "Jane Doe",
		PatientID:   "P-12345",
		TestType:    "BMP",
		Source:      "ED",
		Status:      status,
		Timestamp:   models.NewTime(time.Now().Add(-time.Hour)),
	}
}

func TestListSamples(t *testing.T) {
	srv := apitest.NewServer(seedSample("S-1", models.StatusReceived), seedSample("S-2", models.StatusInProgress))
	defer srv.Close()

	c := api.NewClient(srv.URL, 0)
	samples, err := c.ListSamples(context.Background())
	if err != nil {
		t.Fatalf("ListSamples failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if samples[0].SampleID != "S-1" || samples[1].Status != models.StatusInProgress {
		t.Errorf("Unexpected samples: %+v", samples)
	}
}

func TestListSamples_StatusError(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.FailNext(1, http.StatusServiceUnavailable)

	c := api.NewClient(srv.URL, 0)
	_, err := c.ListSamples(context.Background())

	var se *api.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if se.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", se.Code)
	}
	if se.Message != "injected failure" {
		t.Errorf("Expected error message from body, got %q", se.Message)
	}
}

func TestListSamples_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := api.NewClient(url, time.Second)
	_, err := c.ListSamples(context.Background())
	if !errors.Is(err, api.ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable, got %v", err)
	}
}

func TestListSamples_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, 0)
	_, err := c.ListSamples(context.Background())
	if !errors.Is(err, api.ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestMutations(t *testing.T) {
	srv := apitest.NewServer(seedSample("S-1", models.StatusAnalysisComplete))
	defer srv.Close()
	c := api.NewClient(srv.URL, 0)
	ctx := context.Background()

	msg, err := c.UpdateStatus(ctx, "S-1", models.StatusResultsAvailable)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if msg == "" {
		t.Error("Expected a message from the server")
	}
	rec, _ := srv.Sample("S-1")
	if rec.Status != models.StatusResultsAvailable || rec.TATEnd == nil {
		t.Errorf("Expected terminal status with tatEnd, got %+v", rec)
	}

	if _, err := c.Claim(ctx, "S-1", "Dr. Jane Doe"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	rec, _ = srv.Sample("S-1")
	if rec.Claimer() != "Dr. Jane Doe" {
		t.Errorf("Expected claimer Dr. Jane Doe, got %q", rec.Claimer())
	}

	if _, err := c.UpdateStatus(ctx, "missing", models.StatusReceived); err == nil {
		t.Error("Expected error for unknown sample")
	}

	ns := models.NewSampleAt("John Roe", "P-999", "CBC", "ICU", time.Now())
	if _, err := c.AddSample(ctx, ns); err != nil {
		t.Fatalf("AddSample failed: %v", err)
	}
	samples, _ := c.ListSamples(ctx)
	if len(samples) != 2 {
		t.Errorf("Expected 2 samples after add, got %d", len(samples))
	}
}
