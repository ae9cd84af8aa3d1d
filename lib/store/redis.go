package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// --------------------------------------------------------------------------
// Connection Configuration
// --------------------------------------------------------------------------

// Config holds the connection parameters for the Redis-backed store.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DB       int    `json:"db"`
	Password string `json:"password"`

	DialTimeoutSec int `json:"dial_timeout_sec"`
	ReadTimeoutSec int `json:"read_timeout_sec"`
	PoolSize       int `json:"pool_size"`
}

// Addr returns the host:port address of the store.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// --------------------------------------------------------------------------
// Redis Implementation
// --------------------------------------------------------------------------

type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates an IStore backed by a Redis client. The connection
// is established lazily; callers should Ping before starting a run so a
// misconfigured endpoint fails up front.
func NewRedisStore(cfg Config) IStore {
	return &redisStore{
		rdb: redis.NewClient(&redis.Options{
			Addr:        cfg.Addr(),
			DB:          cfg.DB,
			Password:    cfg.Password,
			DialTimeout: time.Duration(cfg.DialTimeoutSec) * time.Second,
			ReadTimeout: time.Duration(cfg.ReadTimeoutSec) * time.Second,
			PoolSize:    cfg.PoolSize,
		}),
	}
}

func (s *redisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping %s: %w", s.rdb.Options().Addr, err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *redisStore) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) Pipeline(ctx context.Context, ops []Op) ([]Result, error) {
	// Pipeline() is the non-transactional variant: one round trip, ordered
	// responses, no MULTI/EXEC wrapper, safe against Redis Cluster.
	pipe := s.rdb.Pipeline()

	cmds := make([]redis.Cmder, len(ops))
	for i, op := range ops {
		switch op.Kind {
		case OpGet:
			cmds[i] = pipe.Get(ctx, op.Key)
		case OpSetTTL:
			cmds[i] = pipe.Set(ctx, op.Key, op.Value, op.TTL)
		default:
			return nil, fmt.Errorf("pipeline: unknown op kind %d", op.Kind)
		}
	}

	// Exec returns the first command error other than a key miss. A key
	// miss is an expected outcome here, so only transport-level failures
	// count as a batch failure.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	results := make([]Result, len(ops))
	for i, cmd := range cmds {
		switch c := cmd.(type) {
		case *redis.StringCmd:
			value, err := c.Bytes()
			if errors.Is(err, redis.Nil) {
				results[i] = Result{Found: false}
			} else if err != nil {
				results[i] = Result{Err: err}
			} else {
				results[i] = Result{Value: value, Found: true}
			}
		case *redis.StatusCmd:
			if err := c.Err(); err != nil {
				results[i] = Result{Err: err}
			} else {
				results[i] = Result{Found: true}
			}
		}
	}

	return results, nil
}

func (s *redisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return s.rdb.Keys(ctx, pattern).Result()
}

func (s *redisStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	raw, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	ttl, found := classifyTTL(raw)
	return ttl, found, nil
}

// classifyTTL maps the client's raw TTL reply onto the store contract. The
// Redis sentinels pass through go-redis unscaled: -2ns means the key does
// not exist, -1ns means it has no expiry. Only real TTLs carry a unit.
func classifyTTL(raw time.Duration) (ttl time.Duration, found bool) {
	switch raw {
	case time.Duration(-2):
		return 0, false
	case time.Duration(-1):
		return 0, true
	default:
		return raw, true
	}
}

func (s *redisStore) FlushAll(ctx context.Context) error {
	return s.rdb.FlushAll(ctx).Err()
}

func (s *redisStore) Close() error {
	return s.rdb.Close()
}
