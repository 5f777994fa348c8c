package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/resilience"
)

func TestListDecodesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/events/demo night/attendees/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"records":[{"attendeeId":"jane-doe","eventId":"demo night","status":"Present","lastUpdated":"2026-10-15T18:00:00Z"}]}`))
	}))
	defer server.Close()

	records, err := New(server.URL+"/", time.Second).List(context.Background(), "demo night")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].Status != domain.StatusPresent {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestUpdateSendsWireBody(t *testing.T) {
	var captured map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/attendees/status" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"record":{"attendeeId":"jane-doe","eventId":"demo-night","status":"Checked Out","lastUpdated":"2026-10-15T19:00:00Z"}}`))
	}))
	defer server.Close()

	rec, err := New(server.URL, time.Second).Update(context.Background(), "jane-doe", domain.StatusCheckedOut, "demo-night")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if captured["attendeeId"] != "jane-doe" || captured["status"] != "Checked Out" || captured["eventId"] != "demo-night" {
		t.Fatalf("unexpected request body: %v", captured)
	}
	if rec.Status != domain.StatusCheckedOut {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestUpdateMapsConflictToInvalidTransition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"\"Not Arrived\" -> \"Checked Out\""}`))
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).Update(context.Background(), "jane-doe", domain.StatusCheckedOut, "demo-night")
	if !domain.IsKind(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if !strings.Contains(err.Error(), "Checked Out") {
		t.Fatalf("expected server message in error, got %v", err)
	}
}

func TestListRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "db restarting", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
	})
	records, err := New(server.URL, time.Second, WithResilience(executor)).List(context.Background(), "demo-night")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 || calls.Load() != 3 {
		t.Fatalf("expected empty records after 3 calls, got %d records, %d calls", len(records), calls.Load())
	}
}

func TestServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).List(context.Background(), "demo-night")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}
