package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	values map[string]string
}

func (m *memoryLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryLockStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestRedisLockExcludesSecondHolder(t *testing.T) {
	store := &memoryLockStore{values: map[string]string{}}
	first, err := NewRedisLock(store, "gh:cron:lock", "web.1", time.Hour)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "gh:cron:lock", "web.2", time.Hour)
	require.NoError(t, err)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, store.values["gh:cron:lock"], "web.1/")

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(context.Background()))
	assert.Contains(t, store.values, "gh:cron:lock", "non-holder must not release")

	require.NoError(t, first.Release(context.Background()))
	assert.NotContains(t, store.values, "gh:cron:lock")
}

func TestRedisLockLeavesForeignTokenAlone(t *testing.T) {
	store := &memoryLockStore{values: map[string]string{}}
	lock, err := NewRedisLock(store, "k", "web.1", time.Hour)
	require.NoError(t, err)

	_, err = lock.Acquire(context.Background())
	require.NoError(t, err)
	store.values["k"] = "web.9/expired-and-retaken"

	require.NoError(t, lock.Release(context.Background()))
	assert.Equal(t, "web.9/expired-and-retaken", store.values["k"])
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "k", "i", time.Hour)
	assert.Error(t, err)
	_, err = NewRedisLock(&memoryLockStore{}, "k", "i", 0)
	assert.Error(t, err)
}
