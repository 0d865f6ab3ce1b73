// Package ingest receives robot status messages over Redis pub/sub.
//
// The broker bridge publishes each device message to a channel named after
// its topic, wrapped in an Envelope that carries the tenant and subject
// the device connection authenticated as. The subscriber drains matching
// channels and hands every message to the routing layer, which owns the
// tenant checks.
package ingest
