package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow("key-1") {
			t.Fatalf("request %d within burst must be allowed", i+1)
		}
	}
	if rl.Allow("key-1") {
		t.Fatal("request beyond burst must be rejected")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	if !rl.Allow("key-a") {
		t.Fatal("first request for key-a must pass")
	}
	if !rl.Allow("key-b") {
		t.Fatal("first request for key-b must pass")
	}
	if rl.Allow("key-a") {
		t.Fatal("second burst request for key-a must fail")
	}
}

func TestRateLimiterMiddlewareUsesAPIKey(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/gateway/telemetry", nil)
	req.Header.Set("X-API-Key", "gw-key")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
