package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"antiromantic-be/internal/apperr"

	"github.com/redis/go-redis/v9"
)

const (
	statePending = "pending"
	stateDone    = "done"
	maxKeyLength = 128
)

var (
	ErrInProgress = apperr.Conflict("a request with this idempotency key is still in progress")
	ErrInvalidKey = apperr.Validation("idempotency key must be at most 128 characters")
	ErrKeyReused  = apperr.Validation("idempotency key was already used for a different request")
)

// Store remembers the outcome of a request per (scope, key). The
// fingerprint identifies the request body a key was first used with.
type Store interface {
	// Reserve claims the key. It returns the stored result when the key
	// already completed, ErrInProgress while another request holds it and
	// ErrKeyReused when the fingerprint differs.
	Reserve(ctx context.Context, scope, key, fingerprint string) ([]byte, error)
	Complete(ctx context.Context, scope, key, fingerprint string, result []byte) error
	Release(ctx context.Context, scope, key string) error
}

type record struct {
	State       string          `json:"state"`
	Fingerprint string          `json:"fingerprint"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// RedisStore keeps pending claims for lockTTL and finished results for ttl.
// A claim whose owner died expires after lockTTL and the key can be retried.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisStore(client *redis.Client, ttl, lockTTL time.Duration) *RedisStore {
	if lockTTL <= 0 || lockTTL > ttl {
		lockTTL = ttl
	}
	return &RedisStore{client: client, ttl: ttl, lockTTL: lockTTL}
}

func (r *RedisStore) Reserve(ctx context.Context, scope, key, fingerprint string) ([]byte, error) {
	if len(key) > maxKeyLength {
		return nil, ErrInvalidKey
	}

	k := storeKey(scope, key)
	pending, err := json.Marshal(record{State: statePending, Fingerprint: fingerprint})
	if err != nil {
		return nil, fmt.Errorf("encode idempotency record: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := r.client.SetNX(ctx, k, pending, r.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx failed: %w", err)
		}
		if ok {
			return nil, nil
		}

		data, err := r.client.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis get failed: %w", err)
		}

		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode idempotency record: %w", err)
		}
		if rec.Fingerprint != fingerprint {
			return nil, ErrKeyReused
		}
		if rec.State != stateDone {
			return nil, ErrInProgress
		}
		return rec.Result, nil
	}

	return nil, ErrInProgress
}

func (r *RedisStore) Complete(ctx context.Context, scope, key, fingerprint string, result []byte) error {
	data, err := json.Marshal(record{State: stateDone, Fingerprint: fingerprint, Result: result})
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	if err := r.client.Set(ctx, storeKey(scope, key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Release(ctx context.Context, scope, key string) error {
	if err := r.client.Del(ctx, storeKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storeKey(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
