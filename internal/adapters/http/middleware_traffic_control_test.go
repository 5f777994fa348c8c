package httpadapter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type observerFake struct {
	mu        sync.Mutex
	throttled []string
	decodes   []string
	renders   []string
}

func (o *observerFake) RecordTokenDecode(kind, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decodes = append(o.decodes, kind+":"+result)
}

func (o *observerFake) RecordQRRender(kind string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	status := "success"
	if err != nil {
		status = "error"
	}
	o.renders = append(o.renders, kind+":"+status)
}

func (o *observerFake) RecordThrottled(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.throttled = append(o.throttled, reason)
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	observer := &observerFake{}
	handler := newTestHandler(t, newStatusFake(), Options{
		RateLimitRPS:   1,
		RateLimitBurst: 1,
		Observer:       observer,
	})

	req1 := httptest.NewRequest(http.MethodGet, "/v1/events/demo-night/attendees/status", nil)
	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, req1)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/v1/events/demo-night/attendees/status", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}
	if len(observer.throttled) != 1 || observer.throttled[0] != "rate_limit" {
		t.Fatalf("expected one rate_limit throttle, got %v", observer.throttled)
	}
}

func TestRateLimitDoesNotCoverHealthz(t *testing.T) {
	handler := newTestHandler(t, newStatusFake(), Options{RateLimitRPS: 1, RateLimitBurst: 1})

	for i := 0; i < 3; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if res.Code != http.StatusOK {
			t.Fatalf("healthz request %d expected 200, got %d", i, res.Code)
		}
	}
}

func TestBackpressureMiddlewareReturns503WhenSaturated(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int, 1)

	base := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	observer := &observerFake{}
	handler := backpressureMiddleware(base, 1, 20*time.Millisecond, observer)

	go func() {
		req := httptest.NewRequest(http.MethodGet, "/v1/events/demo-night/attendees/status", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		done <- res.Code
	}()

	<-started

	req2 := httptest.NewRequest(http.MethodGet, "/v1/events/demo-night/attendees/status", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for saturated backpressure gate, got %d", res2.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(bytes.NewReader(res2.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode overload response: %v", err)
	}
	if resp["error"] == "" {
		t.Fatalf("expected overload error message in response")
	}

	close(release)

	select {
	case code := <-done:
		if code != http.StatusNoContent {
			t.Fatalf("first request expected 204, got %d", code)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timed out waiting for first request completion")
	}
	if len(observer.throttled) != 1 || observer.throttled[0] != "backpressure" {
		t.Fatalf("expected one backpressure throttle, got %v", observer.throttled)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	handler := newTestHandler(t, newStatusFake(), Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected request id echo, got %q", got)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}
