package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMalformedToken is returned when a token does not have the expected
	// three-segment structure or its payload cannot be decoded.
	ErrMalformedToken = errors.New("malformed token")

	// ErrTokenExpired is returned when a structurally valid token has an
	// expiry at or before the current time.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidSignature is returned by verifying decoders when the token
	// signature does not check out against the issuer's keys.
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Group is the tenant-level membership carried in a token.
type Group string

const (
	// GroupAdministrator may additionally issue destructive operations
	// within its own tenant.
	GroupAdministrator Group = "administrator"

	// GroupStandardUser is restricted to read and status-update operations
	// within its own tenant.
	GroupStandardUser Group = "standard-user"
)

// TokenClaims is the structured claim set carried in the payload segment of
// a bearer token.
type TokenClaims struct {
	Subject  string `json:"sub"`
	TenantID string `json:"tenant"`
	Group    Group  `json:"group"`
	IssuedAt int64  `json:"iat"`
	Expiry   int64  `json:"exp"`
}

// ExpiresAt returns the expiry instant of the claim set.
func (c TokenClaims) ExpiresAt() time.Time {
	return time.Unix(c.Expiry, 0)
}

// Principal is the authenticated identity and tenant context derived from a
// validated token. It is never persisted and lives for one request.
type Principal struct {
	Subject   string
	TenantID  string
	Group     Group
	ExpiresAt time.Time
}

// Principal converts a validated claim set into a request principal.
func (c TokenClaims) Principal() Principal {
	return Principal{
		Subject:   c.Subject,
		TenantID:  c.TenantID,
		Group:     c.Group,
		ExpiresAt: c.ExpiresAt(),
	}
}

// Codec decodes and structurally validates bearer tokens without any
// network I/O, so it is safe to run at the CDN edge.
//
// The codec checks structure (three dot-separated segments, base64url
// payload, JSON claim set) and expiry against the current clock. It does
// NOT verify the signature segment; that is a documented limitation of the
// reduced edge checkpoint, and any deployment trusting these claims for
// more than defense-in-depth must use a verifying decoder (JWTVerifier or
// OIDCVerifier) instead.
type Codec struct {
	now func() time.Time
}

// NewCodec creates a codec using the wall clock.
func NewCodec() *Codec {
	return &Codec{now: time.Now}
}

// NewCodecWithClock creates a codec with an injected clock, for tests.
func NewCodecWithClock(now func() time.Time) *Codec {
	return &Codec{now: now}
}

// Decode splits and decodes a raw bearer token and validates its structure
// and expiry. Expiry is checked against the clock at decode time, not
// issuance. Returns ErrMalformedToken or ErrTokenExpired on failure.
func (c *Codec) Decode(raw string) (TokenClaims, error) {
	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return TokenClaims{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(segments))
	}

	payload, err := decodeSegment(segments[1])
	if err != nil {
		return TokenClaims{}, fmt.Errorf("%w: payload is not base64url", ErrMalformedToken)
	}

	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return TokenClaims{}, fmt.Errorf("%w: payload is not a JSON claim set", ErrMalformedToken)
	}

	// now >= exp means expired; a missing exp claim is treated as expired.
	if !c.now().Before(claims.ExpiresAt()) {
		return TokenClaims{}, ErrTokenExpired
	}

	return claims, nil
}

// decodeSegment accepts base64url with or without padding, as both forms
// appear in the wild.
func decodeSegment(segment string) ([]byte, error) {
	if l := len(segment) % 4; l > 0 {
		segment += strings.Repeat("=", 4-l)
	}
	return base64.URLEncoding.DecodeString(segment)
}
