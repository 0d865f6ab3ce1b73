// Package observability provides structured logging and Prometheus metrics.
//
// # Logging
//
// Logger is a thin wrapper over log/slog emitting JSON, with chainable
// field attachment:
//
//	log := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	log.WithField("tenant_id", "t1").Info("robot status updated")
//
// Request-scoped values (request id, tenant, subject) ride on the context
// and are folded into the logger by FromContext:
//
//	log := observability.FromContext(r.Context())
//	log.Warn("authorization denied")
//
// # Metrics
//
// Metrics registers all fleetgate_* Prometheus collectors on a registry and
// exposes them via Handler(), typically on the separate health port:
//
//	m := observability.NewMetrics(nil)
//	healthMux.Handle("/metrics", m.Handler())
//
// Edge decisions, authorization outcomes, routed telemetry, resolver
// operations, and store latency are all tracked here so the isolation
// checks are observable without adding state to the checking code itself.
package observability
