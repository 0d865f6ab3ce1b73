// Package authz holds the tenant-scoped access-control model.
//
// A decision takes a Principal (from a verified token) and a Resource
// (tenant, robot, operation) and answers allow or deny with a reason.
// Tenant isolation dominates: no group grants cross-tenant access, so an
// administrator in one tenant has no standing in another. Group grants are
// configuration, not code; DefaultConfig mirrors the platform's two
// built-in groups.
package authz
