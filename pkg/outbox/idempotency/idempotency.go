// Package idempotency dedupes outbox deliveries per consumer. Pub/Sub is
// at-least-once, so every worker claims an event id before acting on it.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/pkg/redis"
)

// DefaultTTL covers the Pub/Sub retention window with room to spare.
const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrConsumerRequired = errors.New("idempotency: consumer name is required")
	ErrEventIDRequired  = errors.New("idempotency: event id is required")
)

// Manager records claimed event ids in redis. The stored value is the claim
// time, which is handy when chasing a stuck delivery.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	now   func() time.Time
}

// NewManager returns a Manager whose claims expire after ttl; zero means
// DefaultTTL, since a key without expiry would never be reclaimed.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// CheckAndMarkProcessed claims eventID for consumer. It reports true when a
// previous delivery already holds the claim.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	claimed, err := m.store.SetNX(ctx, key, m.now().UTC().Format(time.RFC3339), m.ttl)
	if err != nil {
		return false, err
	}
	return !claimed, nil
}

// Release drops the claim so a redelivery is processed again. Consumers call
// it when handling failed after the claim was taken.
func (m *Manager) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", ErrConsumerRequired
	}
	if eventID == uuid.Nil {
		return "", ErrEventIDRequired
	}
	return m.store.IdempotencyKey("event:"+consumer, eventID.String()), nil
}
