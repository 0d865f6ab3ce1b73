// Package auth provides bearer token decoding and principal derivation for
// the fleetgate core.
//
// # Overview
//
// Every request and telemetry message is attributed to a Principal: the
// subject, tenant, and group derived from a validated bearer token. The
// principal lives for exactly one request and is never persisted; each
// component that needs tenant identity re-derives it rather than trusting
// an upstream annotation.
//
// # Token format
//
// Tokens are three dot-separated base64url segments (header, payload,
// signature). The payload is a JSON claim set carrying at least:
//
//	sub    - subject id
//	tenant - tenant id
//	group  - "administrator" or "standard-user"
//	exp    - expiry, seconds since epoch
//
// # Decoders
//
// Codec checks structure and expiry only, with no network I/O. It mirrors
// the reduced checkpoint that runs at the CDN edge, where no call to the
// identity provider is possible. Its claims are suitable for an
// accept/reject gate, not for authorization decisions on their own.
//
// JWTVerifier (static issuer key, golang-jwt) and OIDCVerifier (key set
// from OIDC discovery, go-oidc) verify the signature as well and are the
// decoders the API path uses:
//
//	verifier := auth.NewJWTVerifier(publicKey, issuer, audience)
//	claims, err := verifier.Verify(ctx, raw)
//	if err != nil {
//		// ErrMalformedToken, ErrTokenExpired, or ErrInvalidSignature
//	}
//	principal := claims.Principal()
//
// # Related Packages
//
//   - pkg/edge: request gate built on Codec
//   - pkg/middleware: API authentication built on ClaimsVerifier
//   - pkg/authz: decisions over a Principal
package auth
