// Package routing moves robot status messages from the ingestion layer
// into the store, enforcing the tenant boundary on the way.
//
// The topic format is tenant/{tenant_id}/robot/{robot_id}/status. The
// tenant in the topic is untrusted: the router compares it against the
// tenant the transport authenticated the publisher as, and a mismatch
// drops the message and records a tenant spoof attempt. Validation always
// completes before any store write.
package routing
