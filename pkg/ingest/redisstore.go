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

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"

	"github.com/dgryski/go-rendezvous"
	"github.com/redis/go-redis/v9"
)

// redisCmdable is the minimal surface redisStore needs from a *redis.Client,
// kept narrow so tests can substitute a fake without a real server.
type redisCmdable interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Rename(ctx context.Context, key, newkey string) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	MemoryUsage(ctx context.Context, key string, memoryUsageArgs ...redis.MemoryUsageArgs) *redis.IntCmd
}

// redisStore is a multi-endpoint, Redis-backed overflowStore for deployments
// with a read-only filesystem. Each Client picks one shard per list key via
// rendezvous hashing over the configured endpoints (github.com/dgryski/go-
// rendezvous), so a fleet of processes spreads its overflow lists evenly
// across the Redis cluster without a central coordinator. It reproduces the
// DiskStore recovery protocol (rename-to-recovering, then clear) as RENAME
// over Redis list keys instead of a filesystem rename.
type redisStore struct {
	clients       map[string]redisCmdable
	ring          *rendezvous.Rendezvous
	listKey       string
	recoveringKey string
	maxBytes      int64
}

// NewRedisStore builds an overflowStore addressing the given Redis
// endpoints, for use with WithStore. listKey should be unique per Client
// (the default DiskStore naming convention — derived from the endpoint
// hash — is a reasonable choice).
func NewRedisStore(addrs []string, listKey string, maxBytes int64) (*redisStore, error) {
	if len(addrs) == 0 {
		return nil, errors.New("ingest: at least one redis endpoint is required")
	}
	clients := make(map[string]redisCmdable, len(addrs))
	nodes := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		clients[addr] = redis.NewClient(&redis.Options{Addr: addr})
		nodes = append(nodes, addr)
	}
	return &redisStore{
		clients:       clients,
		ring:          rendezvous.New(nodes, hashEndpoint),
		listKey:       listKey,
		recoveringKey: listKey + ":recovering",
		maxBytes:      maxBytes,
	}, nil
}

func hashEndpoint(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func (r *redisStore) shard() redisCmdable {
	return r.clients[r.ring.Lookup(r.listKey)]
}

// Append RPUSHes the batch as a single JSON array entry. The byte budget is
// approximated via MEMORY USAGE on the live list; a server that doesn't
// support it (or returns an error) is treated as having room, consistent
// with DiskStore's best-effort handling of a Stat failure.
func (r *redisStore) Append(batch []Event) (bool, error) {
	if len(batch) == 0 {
		return true, nil
	}
	ctx := context.Background()
	client := r.shard()

	if used, err := client.MemoryUsage(ctx, r.listKey).Result(); err == nil && used >= r.maxBytes {
		return false, nil
	}

	line, err := json.Marshal(batch)
	if err != nil {
		return false, err
	}
	if err := client.RPush(ctx, r.listKey, line).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Recover implements the same two-path probe as DiskStore.Recover: a
// recovering key from a prior crash takes precedence over the live key, and
// only the live key triggers a fresh rename handoff.
func (r *redisStore) Recover(maxEvents int) ([]Event, error) {
	ctx := context.Background()
	client := r.shard()

	exists, err := client.Exists(ctx, r.recoveringKey).Result()
	if err != nil {
		return nil, err
	}
	if exists > 0 {
		return readRedisList(ctx, client, r.recoveringKey, maxEvents)
	}

	liveExists, err := client.Exists(ctx, r.listKey).Result()
	if err != nil {
		return nil, err
	}
	if liveExists == 0 {
		return nil, nil
	}
	events, err := readRedisList(ctx, client, r.listKey, maxEvents)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	if err := client.Rename(ctx, r.listKey, r.recoveringKey).Err(); err != nil {
		_ = client.Del(ctx, r.listKey).Err()
		return events, nil
	}
	return events, nil
}

// ClearRecovered deletes the current recovering key, if any.
func (r *redisStore) ClearRecovered() error {
	ctx := context.Background()
	return r.shard().Del(ctx, r.recoveringKey).Err()
}

func (r *redisStore) BytesUsed() int64 {
	ctx := context.Background()
	used, err := r.shard().MemoryUsage(ctx, r.listKey).Result()
	if err != nil {
		return 0
	}
	return used
}

func readRedisList(ctx context.Context, client redisCmdable, key string, maxEvents int) ([]Event, error) {
	lines, err := client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	var out []Event
	for _, line := range lines {
		var arr []Event
		if err := json.Unmarshal([]byte(line), &arr); err == nil {
			if len(out)+len(arr) > maxEvents {
				arr = arr[:max0(maxEvents-len(out))]
			}
			out = append(out, arr...)
			if len(out) >= maxEvents {
				break
			}
			continue
		}
		// malformed entry: skip
	}
	return out, nil
}
