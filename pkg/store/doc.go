// Package store persists robot state, keyed by tenant and robot.
//
// Three backends share one Store interface: an in-memory map for tests and
// local development, Redis for single-region deployments, and DynamoDB
// matching the production table layout (tenant_id partition key, robot_id
// sort key). Status updates merge into the existing record rather than
// replacing it, and concurrent writers are last-writer-wins.
package store
