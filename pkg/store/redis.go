package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore persists robot records as JSON values keyed by tenant and
// robot. It suits single-region deployments where the fleet state fits a
// cache-class database.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis using the configured URL and verifies
// the connection with a ping.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB >= 0 {
		opts.DB = cfg.RedisDB
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client, used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(key Key) string {
	return fmt.Sprintf("robot:%s:%s", key.TenantID, key.RobotID)
}

// GetRobot fetches and decodes the record for key.
func (s *RedisStore) GetRobot(ctx context.Context, key Key) (*RobotRecord, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get robot %s: %w", key, err)
	}

	var rec RobotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode robot %s: %w", key, err)
	}
	return &rec, nil
}

// PutRobotStatus reads the current record, merges the update and writes it
// back. Concurrent writers are last-writer-wins.
func (s *RedisStore) PutRobotStatus(ctx context.Context, key Key, status map[string]interface{}, lastSeen time.Time) (*RobotRecord, error) {
	var base map[string]interface{}
	if existing, err := s.GetRobot(ctx, key); err == nil {
		base = existing.Status
	} else if err != ErrNotFound {
		return nil, err
	}

	rec := &RobotRecord{
		TenantID: key.TenantID,
		RobotID:  key.RobotID,
		Status:   mergeStatus(base, status),
		LastSeen: lastSeen,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode robot %s: %w", key, err)
	}

	if err := s.client.Set(ctx, redisKey(key), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to put robot %s: %w", key, err)
	}
	return rec, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
