package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TypedStore keeps JSON-encoded values of type C under prefixed keys.
type TypedStore[C any] struct {
	rdb       *goredis.Client
	keyPrefix string
}

// NewTypedStore returns a store writing keys as "<keyPrefix>:<key>".
func NewTypedStore[C any](client *Client, keyPrefix string) *TypedStore[C] {
	return &TypedStore[C]{rdb: client.Unwrap(), keyPrefix: keyPrefix}
}

func (s *TypedStore[C]) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

func (s *TypedStore[C]) decode(key, raw string) (C, bool, error) {
	var val C
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return val, false, fmt.Errorf("typed store unmarshal %q: %w", key, err)
	}
	return val, true, nil
}

// Load returns the value at key; found is false when the key is absent.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (C, bool, error) {
	raw, err := s.rdb.Get(ctx, s.fullKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		var zero C
		return zero, false, nil
	}
	if err != nil {
		var zero C
		return zero, false, fmt.Errorf("typed store load %q: %w", key, err)
	}
	return s.decode(key, raw)
}

// Take atomically loads and deletes key with GETDEL.
func (s *TypedStore[C]) Take(ctx context.Context, key string) (C, bool, error) {
	raw, err := s.rdb.GetDel(ctx, s.fullKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		var zero C
		return zero, false, nil
	}
	if err != nil {
		var zero C
		return zero, false, fmt.Errorf("typed store take %q: %w", key, err)
	}
	return s.decode(key, raw)
}

// Create stores val only if key is absent. stored is false when it exists.
func (s *TypedStore[C]) Create(ctx context.Context, key string, val C, ttl time.Duration) (bool, error) {
	return s.set(ctx, key, val, ttl, "NX")
}

// Replace stores val only if key exists. stored is false when it is absent.
func (s *TypedStore[C]) Replace(ctx context.Context, key string, val C, ttl time.Duration) (bool, error) {
	return s.set(ctx, key, val, ttl, "XX")
}

func (s *TypedStore[C]) set(ctx context.Context, key string, val C, ttl time.Duration, mode string) (bool, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return false, fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	_, err = s.rdb.SetArgs(ctx, s.fullKey(key), data, goredis.SetArgs{Mode: mode, TTL: ttl}).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("typed store save %q: %w", key, err)
	}
	return true, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("typed store delete %q: %w", key, err)
	}
	return nil
}
