package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryStore) LockKey(name string) string { return "cm:lock:" + name }

func TestRedisLockIsExclusive(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	first, err := NewRedisLock(store, "cron-worker:dev", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, "cron-worker:dev", 0)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if store.ttls[first.Key()] != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", store.ttls[first.Key()])
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatalf("second holder must not acquire a held lock")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("non-holder release: %v", err)
	}
	if _, held := store.values["cm:lock:cron-worker:dev"]; !held {
		t.Fatalf("non-holder release must not drop the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatalf("lock should be free after release")
	}
}

func TestRedisLockReleaseAfterExpiryKeepsNewHolder(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	stale, _ := NewRedisLock(store, "jobs", time.Minute)
	if ok, _ := stale.Acquire(ctx); !ok {
		t.Fatalf("acquire failed")
	}
	store.values[stale.Key()] = "someone-else"

	if err := stale.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values[stale.Key()] != "someone-else" {
		t.Fatalf("expired holder deleted another holder's lock")
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "jobs", 0); err == nil {
		t.Fatalf("expected error without store")
	}
	if _, err := NewRedisLock(newMemoryStore(), "", 0); err == nil {
		t.Fatalf("expected error without name")
	}
}
