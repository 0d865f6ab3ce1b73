package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps robot records in process memory. It is the default
// backend for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Key]*RobotRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[Key]*RobotRecord),
	}
}

// GetRobot returns a copy of the record for key.
func (s *MemoryStore) GetRobot(_ context.Context, key Key) (*RobotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

// PutRobotStatus merges status into the stored record.
func (s *MemoryStore) PutRobotStatus(_ context.Context, key Key, status map[string]interface{}, lastSeen time.Time) (*RobotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.records[key]
	var base map[string]interface{}
	if existing != nil {
		base = existing.Status
	}

	rec := &RobotRecord{
		TenantID: key.TenantID,
		RobotID:  key.RobotID,
		Status:   mergeStatus(base, status),
		LastSeen: lastSeen,
	}
	s.records[key] = rec
	return copyRecord(rec), nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error {
	return nil
}

func copyRecord(rec *RobotRecord) *RobotRecord {
	out := *rec
	out.Status = make(map[string]interface{}, len(rec.Status))
	for k, v := range rec.Status {
		out.Status[k] = v
	}
	return &out
}
