// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "passkey:pending:"

// RedisSessionStore is a Redis-backed implementation of SessionStore for
// production deployments where the server runs more than one replica.
// Values are JSON-encoded; Take maps to GETDEL so consumption is atomic on
// the Redis side. Keys carry a TTL equal to the pending max age as a
// safety net; authoritative expiry is still the verifier's CreatedAt
// check.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store. ttl should be
// the pending max age from the service configuration.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = maxPendingAgeCap
	}
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
	}
}

// Put stores the pending registration, replacing any prior one.
func (s *RedisSessionStore) Put(ctx context.Context, sessionKey string, pending *PendingRegistration) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return WrapError("encode pending registration", err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+sessionKey, payload, s.ttl).Err(); err != nil {
		return WrapError("put pending registration", fmt.Errorf("%w: %v", ErrPersistence, err))
	}
	return nil
}

// Get retrieves the pending registration without consuming it.
func (s *RedisSessionStore) Get(ctx context.Context, sessionKey string) (*PendingRegistration, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+sessionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoRegistrationSession
		}
		return nil, WrapError("get pending registration", fmt.Errorf("%w: %v", ErrPersistence, err))
	}

	return decodePending(payload)
}

// Take retrieves and clears the pending registration atomically via GETDEL.
func (s *RedisSessionStore) Take(ctx context.Context, sessionKey string) (*PendingRegistration, error) {
	payload, err := s.client.GetDel(ctx, redisKeyPrefix+sessionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoRegistrationSession
		}
		return nil, WrapError("take pending registration", fmt.Errorf("%w: %v", ErrPersistence, err))
	}

	return decodePending(payload)
}

// Clear removes the pending registration, if any.
func (s *RedisSessionStore) Clear(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+sessionKey).Err(); err != nil {
		return WrapError("clear pending registration", fmt.Errorf("%w: %v", ErrPersistence, err))
	}
	return nil
}

// Ping verifies connectivity to the Redis backend, for health checks.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decodePending(payload []byte) (*PendingRegistration, error) {
	var pending PendingRegistration
	if err := json.Unmarshal(payload, &pending); err != nil {
		return nil, WrapError("decode pending registration", err)
	}
	return &pending, nil
}
