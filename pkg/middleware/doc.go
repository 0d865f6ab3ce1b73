// Package middleware holds the HTTP middleware chain for the fleet API:
// request IDs, bearer token authentication with a verified-token cache,
// and per-tenant rate limiting.
package middleware
