// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dedup guards against merging the same upstream payload twice
// when a downstream controller retries a TCP send it merely suspected had
// failed. It is an opt-in safety net, not a correctness requirement: exactly-once
// delivery across the upstream link is out of scope.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Evaler abstracts the minimal surface needed from a Redis client.
// Implementations may wrap github.com/redis/go-redis/v9's Cmdable.Eval.
type Evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// GoRedisEvaler is the production Evaler, backed by a real go-redis
// client.
type GoRedisEvaler struct {
	client *redis.Client
}

// NewGoRedisEvaler dials redisURL (a redis:// connection string) and
// returns an Evaler wrapping it.
func NewGoRedisEvaler(redisURL string) (*GoRedisEvaler, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &GoRedisEvaler{client: redis.NewClient(opt)}, nil
}

// Eval runs script against client, satisfying Evaler.
func (g *GoRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return g.client.Eval(ctx, script, keys, args...).Result()
}

// markerScript sets an idempotency marker if absent and reports whether it
// was the one doing so.
const markerScript = `
local markerKey = KEYS[1]
local ttlSeconds = tonumber(ARGV[1])
local set = redis.call('SETNX', markerKey, 1)
if set == 1 then
  if ttlSeconds and ttlSeconds > 0 then
    redis.call('EXPIRE', markerKey, ttlSeconds)
  end
  return 1
else
  return 0
end
`

// Guard marks (host, epoch) pairs as seen so a repeated upstream frame for
// the same flush can be dropped before it is merged a second time.
type Guard struct {
	client  Evaler
	markerTTL time.Duration
}

// NewGuard returns a Guard backed by client. markerTTL bounds marker
// growth; it should comfortably exceed the upstream retry window.
func NewGuard(client Evaler, markerTTL time.Duration) *Guard {
	if markerTTL <= 0 {
		markerTTL = time.Hour
	}
	return &Guard{client: client, markerTTL: markerTTL}
}

// markerKey keys the idempotency marker by host and flush epoch.
func markerKey(host string, epoch int64) string {
	return fmt.Sprintf("cardiff:dedup:%s:%d", host, epoch)
}

// Seen reports whether (host, epoch) has already been marked, marking it
// if not. A true result means the caller should skip merging this
// payload.
func (g *Guard) Seen(ctx context.Context, host string, epoch int64) (bool, error) {
	res, err := g.client.Eval(ctx, markerScript, []string{markerKey(host, epoch)}, int(g.markerTTL.Seconds()))
	if err != nil {
		return false, fmt.Errorf("dedup eval host=%s epoch=%d: %w", host, epoch, err)
	}
	applied, ok := res.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected dedup script result type %T", res)
	}
	return applied == 0, nil
}
