// Package edge implements the request gate that runs ahead of the fleet
// API, in the style of a CDN viewer-request function.
//
// The filter makes a fast local decision from the request alone: it checks
// that the Authorization header carries a bearer token, that the token has
// the expected three-segment structure, and that the token has not expired.
// It does not verify the token signature and it performs no network calls;
// full verification happens again behind the edge, so a forged token that
// slips past the filter still fails downstream.
//
// Rejections are terminal 403 responses whose body names the reason:
// MissingAuthorizationHeader, MalformedToken, or TokenExpired. Accepted
// requests are forwarded byte-for-byte unchanged.
package edge
