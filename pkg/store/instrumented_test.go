package store

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/fleetgate/pkg/observability"
)

func TestInstrumentedStore(t *testing.T) {
	metrics := observability.NewMetrics(nil)
	s := NewInstrumentedStore(NewMemoryStore(), "memory", metrics)
	ctx := context.Background()

	_, err := s.PutRobotStatus(ctx, Key{TenantID: "t1", RobotID: "r1"}, map[string]interface{}{"state": "idle"}, time.Now())
	require.NoError(t, err)
	_, err = s.GetRobot(ctx, Key{TenantID: "t1", RobotID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperationsTotal.WithLabelValues("put_robot_status", "memory", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperationsTotal.WithLabelValues("get_robot", "memory", "success")))
}
