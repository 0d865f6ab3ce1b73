package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/platinummonkey/fleetgate/pkg/auth"
	"github.com/platinummonkey/fleetgate/pkg/contextkeys"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		RequestsPerWindow: 60,
		WindowDuration:    time.Minute,
		BurstSize:         3,
	})

	for i := 0; i < 3; i++ {
		if !rl.Allow("t1") {
			t.Fatalf("request %d within burst should be allowed", i)
		}
	}
	if rl.Allow("t1") {
		t.Error("request beyond burst should be denied")
	}

	// An independent key has its own bucket.
	if !rl.Allow("t2") {
		t.Error("other tenant should not be throttled")
	}
}

func TestRateLimiterHandler(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		RequestsPerWindow: 60,
		WindowDuration:    time.Minute,
		BurstSize:         1,
	})

	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(tenant string) int {
		req := httptest.NewRequest("GET", "/", nil)
		ctx := contextkeys.WithPrincipal(req.Context(), auth.Principal{TenantID: tenant})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec.Code
	}

	if got := send("t1"); got != http.StatusOK {
		t.Fatalf("first request: %d", got)
	}
	if got := send("t1"); got != http.StatusTooManyRequests {
		t.Errorf("second request: %d, want 429", got)
	}
	if got := send("t2"); got != http.StatusOK {
		t.Errorf("other tenant: %d, want 200", got)
	}
}

func TestRequestID(t *testing.T) {
	var got string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = contextkeys.GetRequestID(r.Context())
	}))

	t.Run("generates when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if got == "" {
			t.Error("request ID not set")
		}
		if rec.Header().Get(RequestIDHeader) != got {
			t.Error("request ID not echoed")
		}
	})

	t.Run("honors caller's ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "caller-chosen")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if got != "caller-chosen" {
			t.Errorf("request ID = %q", got)
		}
	})
}
