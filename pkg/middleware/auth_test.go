package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/platinummonkey/fleetgate/pkg/audit"
	"github.com/platinummonkey/fleetgate/pkg/auth"
)

type countingVerifier struct {
	inner auth.ClaimsVerifier
	calls int
}

func (v *countingVerifier) Verify(ctx context.Context, raw string) (auth.TokenClaims, error) {
	v.calls++
	return v.inner.Verify(ctx, raw)
}

const testToken = "header.eyJzdWIiOiJ1c2VyLTEiLCJ0ZW5hbnQiOiJ0MSIsImdyb3VwIjoiYWRtaW5pc3RyYXRvciIsImV4cCI6OTk5OTk5OTk5OX0.sig"

func newTestAuthMiddleware(t *testing.T) (*AuthMiddleware, *countingVerifier) {
	t.Helper()
	verifier := &countingVerifier{inner: auth.NewCodecVerifier(auth.NewCodec())}
	mw, err := NewAuthMiddleware(verifier, nil)
	if err != nil {
		t.Fatalf("NewAuthMiddleware: %v", err)
	}
	return mw, verifier
}

func TestAuthMiddleware(t *testing.T) {
	mw, _ := newTestAuthMiddleware(t)

	var gotPrincipal auth.Principal
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrincipal, _ = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
		{"valid token", "Bearer " + testToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/tenants/t1/robots/r1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if gotPrincipal.TenantID != "t1" || gotPrincipal.Subject != "user-1" {
		t.Errorf("principal = %+v", gotPrincipal)
	}
}

func TestAuthMiddlewareCachesVerifiedTokens(t *testing.T) {
	mw, verifier := newTestAuthMiddleware(t)

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+testToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}

	if verifier.calls != 1 {
		t.Errorf("verifier called %d times, want 1", verifier.calls)
	}
}

type staticVerifier struct {
	claims auth.TokenClaims
	err    error
}

func (v staticVerifier) Verify(context.Context, string) (auth.TokenClaims, error) {
	return v.claims, v.err
}

func TestAuthMiddlewareCacheExpiry(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	verifier := &countingVerifier{inner: staticVerifier{
		claims: auth.TokenClaims{
			Subject:  "user-1",
			TenantID: "t1",
			Group:    auth.GroupStandardUser,
			Expiry:   expiry.Unix(),
		},
	}}
	mw, err := NewAuthMiddleware(verifier, nil)
	if err != nil {
		t.Fatalf("NewAuthMiddleware: %v", err)
	}

	if _, err := mw.verify(context.Background(), "tok"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := mw.verify(context.Background(), "tok"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verifier.calls != 1 {
		t.Fatalf("calls = %d, want 1 before expiry", verifier.calls)
	}

	// Advance the clock past the token expiry; the cached entry must be
	// evicted and the token re-verified.
	mw.now = func() time.Time { return expiry.Add(time.Second) }
	if _, err := mw.verify(context.Background(), "tok"); err != nil {
		t.Fatalf("verify after expiry: %v", err)
	}
	if verifier.calls != 2 {
		t.Errorf("calls = %d, want 2 after expiry", verifier.calls)
	}
}

func TestAuthMiddlewareDoesNotCacheFailures(t *testing.T) {
	verifier := &countingVerifier{inner: staticVerifier{err: errors.New("bad token")}}
	mw, err := NewAuthMiddleware(verifier, nil)
	if err != nil {
		t.Fatalf("NewAuthMiddleware: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := mw.verify(context.Background(), "tok"); err == nil {
			t.Fatal("expected error")
		}
	}
	if verifier.calls != 2 {
		t.Errorf("calls = %d, want 2", verifier.calls)
	}
}

func TestAuthMiddlewareRecordsValidateFailure(t *testing.T) {
	recorder := audit.NewRecorder()
	verifier := &countingVerifier{inner: auth.NewCodecVerifier(auth.NewCodec())}
	mw, err := NewAuthMiddleware(verifier, recorder)
	if err != nil {
		t.Fatalf("NewAuthMiddleware: %v", err)
	}

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/tenants/t1/robots/r1", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	events := recorder.ByType(audit.EventTokenValidateFail)
	if len(events) != 1 {
		t.Fatalf("recorded %d validate failure events, want 1", len(events))
	}
	if events[0].Reason == "" {
		t.Error("validate failure event should carry a reason")
	}

	// Successful authentication records nothing.
	req = httptest.NewRequest("GET", "/tenants/t1/robots/r1", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got := len(recorder.ByType(audit.EventTokenValidateFail)); got != 1 {
		t.Errorf("recorded %d validate failure events after success, want 1", got)
	}
}
