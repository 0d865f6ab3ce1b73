package routing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/fleetgate/pkg/store"
)

// ErrMalformedTopic indicates a topic that does not match the status
// topic shape.
var ErrMalformedTopic = errors.New("malformed topic")

// statusTopicSegments is the segment count of tenant/{t}/robot/{r}/status.
const statusTopicSegments = 5

// StatusTopic formats the status topic for a robot key.
func StatusTopic(key store.Key) string {
	return fmt.Sprintf("tenant/%s/robot/%s/status", key.TenantID, key.RobotID)
}

// ParseTopic extracts the robot key from a status topic. The topic must be
// exactly tenant/{tenant_id}/robot/{robot_id}/status with non-empty
// identifiers; anything else is ErrMalformedTopic.
func ParseTopic(topic string) (store.Key, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != statusTopicSegments {
		return store.Key{}, fmt.Errorf("%w: %q", ErrMalformedTopic, topic)
	}
	if parts[0] != "tenant" || parts[2] != "robot" || parts[4] != "status" {
		return store.Key{}, fmt.Errorf("%w: %q", ErrMalformedTopic, topic)
	}
	if parts[1] == "" || parts[3] == "" {
		return store.Key{}, fmt.Errorf("%w: empty identifier in %q", ErrMalformedTopic, topic)
	}

	return store.Key{TenantID: parts[1], RobotID: parts[3]}, nil
}
