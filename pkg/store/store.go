package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates the requested robot has no record.
var ErrNotFound = errors.New("robot not found")

// Key identifies a robot record. Records are partitioned by tenant first so
// a lookup can never cross tenants by construction.
type Key struct {
	TenantID string
	RobotID  string
}

// String renders the key for logs and cache keys.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.TenantID, k.RobotID)
}

// RobotRecord is the stored state of a robot.
type RobotRecord struct {
	TenantID string                 `json:"tenant_id" dynamodbav:"tenant_id"`
	RobotID  string                 `json:"robot_id" dynamodbav:"robot_id"`
	Status   map[string]interface{} `json:"status" dynamodbav:"status"`
	LastSeen time.Time              `json:"last_seen" dynamodbav:"last_seen"`
}

// Store persists robot records. Implementations must apply status updates
// as a merge: fields present in the update overwrite, fields absent are
// preserved. Writes are last-writer-wins.
type Store interface {
	// GetRobot returns the record for key, or ErrNotFound.
	GetRobot(ctx context.Context, key Key) (*RobotRecord, error)

	// PutRobotStatus merges status into the record for key, stamping
	// lastSeen, and returns the resulting record. A missing record is
	// created.
	PutRobotStatus(ctx context.Context, key Key, status map[string]interface{}, lastSeen time.Time) (*RobotRecord, error)

	// Close releases backend resources.
	Close() error
}

// mergeStatus overlays update onto base without mutating either.
func mergeStatus(base, update map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(update))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}
