// Package api exposes the fleet data plane over HTTP.
//
// Routes are tenant-scoped: GET /tenants/{tenant_id}/robots/{robot_id}
// reads a robot, PUT .../status merges a status update, and POST
// /api/v1/dispatch executes a named operation with in-band arguments.
// Every request passes the full middleware chain before a handler runs:
// request ID, the optional edge filter, bearer token authentication, and
// per-tenant rate limiting. Authorization failures surface as 403 and
// missing robots as 404, with denial decided before the store is touched.
package api
