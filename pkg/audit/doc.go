// Package audit emits security-relevant events: rejected requests, denied
// operations, tenant spoof attempts, and data-plane reads and writes.
//
// Events flow through a Sink. SlogSink writes one structured log line per
// event so the audit trail rides the same pipeline as application logs;
// FileSink appends JSON lines to a rotating file for retention; MultiSink
// fans out to several sinks; Recorder captures events for test assertions.
package audit
