package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"stockmap/backend-go/internal/common"
)

func TestLimiterAllowsUpToBudget(t *testing.T) {
	lim := newLimiter(3)
	for i := 0; i < 3; i++ {
		if !lim.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if lim.Allow("10.0.0.1") {
		t.Fatal("request over budget should be rejected")
	}
	// Other clients are unaffected.
	if !lim.Allow("10.0.0.2") {
		t.Fatal("separate ip should be allowed")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.5:4567"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ip := clientIP(r); ip != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %s", ip)
	}

	r.Header.Del("X-Forwarded-For")
	if ip := clientIP(r); ip != "192.168.1.5" {
		t.Fatalf("expected remote host, got %s", ip)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := withRecovery(common.NewSilentLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}
}
