package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/platinummonkey/fleetgate/pkg/audit"
	"github.com/platinummonkey/fleetgate/pkg/auth"
	"github.com/platinummonkey/fleetgate/pkg/contextkeys"
	"github.com/platinummonkey/fleetgate/pkg/httputil"
	"github.com/platinummonkey/fleetgate/pkg/observability"
)

const tokenCacheSize = 1024

type cachedPrincipal struct {
	principal auth.Principal
	expiresAt time.Time
}

// AuthMiddleware authenticates requests with a bearer token and attaches
// the resulting principal to the request context. Verified tokens are
// cached by digest until they expire, so hot clients skip repeated
// signature checks.
type AuthMiddleware struct {
	verifier auth.ClaimsVerifier
	cache    *lru.Cache[string, cachedPrincipal]
	sink     audit.Sink
	now      func() time.Time
}

// NewAuthMiddleware creates authentication middleware over verifier. A nil
// sink discards token validation failure events.
func NewAuthMiddleware(verifier auth.ClaimsVerifier, sink audit.Sink) (*AuthMiddleware, error) {
	cache, err := lru.New[string, cachedPrincipal](tokenCacheSize)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &AuthMiddleware{verifier: verifier, cache: cache, sink: sink, now: time.Now}, nil
}

// Handler wraps next with bearer token authentication.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}
		token := parts[1]

		principal, err := m.verify(r.Context(), token)
		if err != nil {
			event := audit.NewEvent(audit.EventTokenValidateFail)
			event.Reason = err.Error()
			m.sink.Record(r.Context(), event)
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := contextkeys.WithPrincipal(r.Context(), principal)
		ctx = observability.WithTenantID(ctx, principal.TenantID)
		ctx = observability.WithSubject(ctx, principal.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) verify(ctx context.Context, token string) (auth.Principal, error) {
	digest := sha256.Sum256([]byte(token))
	key := hex.EncodeToString(digest[:])

	if cached, ok := m.cache.Get(key); ok {
		if m.now().Before(cached.expiresAt) {
			return cached.principal, nil
		}
		m.cache.Remove(key)
	}

	claims, err := m.verifier.Verify(ctx, token)
	if err != nil {
		return auth.Principal{}, err
	}

	m.cache.Add(key, cachedPrincipal{
		principal: claims.Principal(),
		expiresAt: claims.ExpiresAt(),
	})
	return claims.Principal(), nil
}

// GetPrincipal extracts the authenticated principal from the request
// context. ok is false when the request never passed the middleware.
func GetPrincipal(ctx context.Context) (auth.Principal, bool) {
	principal, ok := ctx.Value(contextkeys.PrincipalKey).(auth.Principal)
	return principal, ok
}
