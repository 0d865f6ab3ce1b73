// Package resolver executes data-plane operations on robots: reads and
// status updates.
//
// Every operation authorizes before it touches the store. Denials return
// ErrUnauthorized without a store round trip, so a cross-tenant caller
// learns nothing about whether the robot exists. Dispatch offers a
// name-keyed entry point for transports that carry the operation in-band;
// GetRobot and UpdateRobotStatus are the typed equivalents.
package resolver
