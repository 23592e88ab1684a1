package ingest

import (
	"context"
	"testing"

	"github.com/dgryski/go-rendezvous"
	"github.com/redis/go-redis/v9"
)

// fakeRedis is a single-node, in-memory stand-in for redisCmdable. It only
// implements the handful of list operations redisStore uses.
type fakeRedis struct {
	lists map[string][]string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{lists: map[string][]string{}} }

func (f *fakeRedis) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	for _, v := range values {
		switch s := v.(type) {
		case string:
			f.lists[key] = append(f.lists[key], s)
		case []byte:
			f.lists[key] = append(f.lists[key], string(s))
		}
	}
	cmd.SetVal(int64(len(f.lists[key])))
	return cmd
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	cmd.SetVal(f.lists[key])
	return cmd
}

func (f *fakeRedis) Rename(ctx context.Context, key, newkey string) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	f.lists[newkey] = f.lists[key]
	delete(f.lists, key)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := f.lists[k]; ok {
			n++
			delete(f.lists, k)
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := f.lists[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) MemoryUsage(ctx context.Context, key string, args ...redis.MemoryUsageArgs) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	cmd.SetErr(redis.Nil)
	return cmd
}

func newTestRedisStore(client redisCmdable) *redisStore {
	return &redisStore{
		clients:       map[string]redisCmdable{"node-1": client},
		ring:          rendezvous.New([]string{"node-1"}, hashEndpoint),
		listKey:       "peekapi-events",
		recoveringKey: "peekapi-events:recovering",
		maxBytes:      defaultMaxStorageBytes,
	}
}

func TestRedisStore_AppendAndRecoverRoundTrip(t *testing.T) {
	client := newFakeRedis()
	s := newTestRedisStore(client)

	ok, err := s.Append([]Event{{"i": float64(1)}, {"i": float64(2)}})
	if err != nil || !ok {
		t.Fatalf("append failed: ok=%v err=%v", ok, err)
	}

	events, err := s.Recover(100)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if _, ok := client.lists["peekapi-events"]; ok {
		t.Fatalf("live key should have been renamed away during recovery")
	}
	if _, ok := client.lists["peekapi-events:recovering"]; !ok {
		t.Fatalf("recovering key should exist after recovery")
	}

	if err := s.ClearRecovered(); err != nil {
		t.Fatalf("clear recovered: %v", err)
	}
	if _, ok := client.lists["peekapi-events:recovering"]; ok {
		t.Fatalf("recovering key should be gone after ClearRecovered")
	}
}

func TestRedisStore_PrefersRecoveringKeyOverLive(t *testing.T) {
	client := newFakeRedis()
	client.lists["peekapi-events"] = []string{`[{"i":1}]`}
	client.lists["peekapi-events:recovering"] = []string{`[{"i":2}]`}
	s := newTestRedisStore(client)

	events, err := s.Recover(100)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if len(events) != 1 || events[0]["i"] != float64(2) {
		t.Fatalf("should have loaded from the recovering key, got %v", events)
	}
	if _, ok := client.lists["peekapi-events"]; !ok {
		t.Fatalf("live key should be left untouched when a recovering key exists")
	}
}

func TestRedisStore_RecoverStopsAtMaxEvents(t *testing.T) {
	client := newFakeRedis()
	client.lists["peekapi-events"] = []string{`[{"i":1},{"i":2},{"i":3}]`}
	s := newTestRedisStore(client)

	events, err := s.Recover(2)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected recovery to stop at maxEvents=2, got %d", len(events))
	}
}

func TestRedisStore_RecoverOnEmptyReturnsNil(t *testing.T) {
	client := newFakeRedis()
	s := newTestRedisStore(client)

	events, err := s.Recover(100)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if events != nil {
		t.Fatalf("expected nil events on an empty store, got %v", events)
	}
}
