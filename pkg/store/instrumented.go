package store

import (
	"context"
	"time"

	"github.com/platinummonkey/fleetgate/pkg/observability"
)

// InstrumentedStore decorates a Store with operation metrics.
type InstrumentedStore struct {
	inner   Store
	backend string
	metrics *observability.Metrics
}

// NewInstrumentedStore wraps inner, labeling metrics with the backend name.
func NewInstrumentedStore(inner Store, backend string, metrics *observability.Metrics) *InstrumentedStore {
	return &InstrumentedStore{
		inner:   inner,
		backend: backend,
		metrics: metrics,
	}
}

func (s *InstrumentedStore) GetRobot(ctx context.Context, key Key) (*RobotRecord, error) {
	start := time.Now()
	rec, err := s.inner.GetRobot(ctx, key)
	s.metrics.ObserveStoreOperation("get_robot", s.backend, err, time.Since(start))
	return rec, err
}

func (s *InstrumentedStore) PutRobotStatus(ctx context.Context, key Key, status map[string]interface{}, lastSeen time.Time) (*RobotRecord, error) {
	start := time.Now()
	rec, err := s.inner.PutRobotStatus(ctx, key, status, lastSeen)
	s.metrics.ObserveStoreOperation("put_robot_status", s.backend, err, time.Since(start))
	return rec, err
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
