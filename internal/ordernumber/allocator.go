package ordernumber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
)

// Allocator hands out the next sequence for a day key. Implementations that
// persist state use tx so the allocation commits or rolls back with the order.
type Allocator interface {
	Allocate(ctx context.Context, tx *gorm.DB, dayKey string) (int, error)
}

// CounterAllocator keeps one row per day in order_sequences and bumps it with
// a single upsert, which serializes concurrent allocations on the row lock.
type CounterAllocator struct{}

func NewCounterAllocator() *CounterAllocator { return &CounterAllocator{} }

func (CounterAllocator) Allocate(ctx context.Context, tx *gorm.DB, dayKey string) (int, error) {
	if tx == nil {
		return 0, errors.New("counter allocator requires a transaction")
	}
	var seq int
	err := tx.WithContext(ctx).Raw(`
INSERT INTO order_sequences (day_key, last_seq, updated_at)
VALUES (?, 1, ?)
ON CONFLICT (day_key) DO UPDATE SET last_seq = order_sequences.last_seq + 1, updated_at = excluded.updated_at
RETURNING last_seq`, dayKey, time.Now().UTC()).Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("increment order sequence: %w", err)
	}
	if seq == 0 {
		return 0, fmt.Errorf("increment order sequence: no row returned for %s", dayKey)
	}
	return seq, nil
}

// MaxScanAllocator derives the next sequence from the highest order number
// already stored for the day. Two transactions can read the same maximum, so
// callers rely on the unique constraint and Generator.Assign to retry.
type MaxScanAllocator struct{}

func NewMaxScanAllocator() *MaxScanAllocator { return &MaxScanAllocator{} }

func (MaxScanAllocator) Allocate(ctx context.Context, tx *gorm.DB, dayKey string) (int, error) {
	if tx == nil {
		return 0, errors.New("max scan allocator requires a transaction")
	}
	var last []string
	q := tx.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number LIKE ?", dayKey+"%").
		Order("order_number DESC").
		Limit(1)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Pluck("order_number", &last).Error; err != nil {
		return 0, fmt.Errorf("scan last order number: %w", err)
	}
	lastIssued := ""
	if len(last) > 0 {
		lastIssued = last[0]
	}
	next, err := NextAfter(dayKey, lastIssued)
	if err != nil {
		return 0, err
	}
	parsed, err := Parse(next)
	if err != nil {
		return 0, err
	}
	return parsed.Sequence, nil
}

// Counter is the redis surface RedisAllocator needs.
type Counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

// RedisAllocator increments a per-day redis key. The key outlives the day so
// late retries in another zone still see the counter.
type RedisAllocator struct {
	counter Counter
	ttl     time.Duration
}

func NewRedisAllocator(counter Counter) (*RedisAllocator, error) {
	if counter == nil {
		return nil, errors.New("redis counter required")
	}
	return &RedisAllocator{counter: counter, ttl: 48 * time.Hour}, nil
}

func (a *RedisAllocator) Allocate(ctx context.Context, _ *gorm.DB, dayKey string) (int, error) {
	seq, err := a.counter.IncrWithTTL(ctx, a.counter.CounterKey("order_number:"+dayKey), a.ttl)
	if err != nil {
		return 0, fmt.Errorf("increment redis order sequence: %w", err)
	}
	return int(seq), nil
}

// MemoryAllocator keeps counters in process memory.
type MemoryAllocator struct {
	mu   sync.Mutex
	seqs map[string]int
}

func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{seqs: map[string]int{}}
}

// Seed sets the last issued sequence for a day.
func (a *MemoryAllocator) Seed(dayKey string, last int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seqs == nil {
		a.seqs = map[string]int{}
	}
	a.seqs[dayKey] = last
}

func (a *MemoryAllocator) Allocate(_ context.Context, _ *gorm.DB, dayKey string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seqs == nil {
		a.seqs = map[string]int{}
	}
	a.seqs[dayKey]++
	return a.seqs[dayKey], nil
}

// AllocatorByName maps the configured allocator name to an implementation.
// counter may be nil unless name is "redis".
func AllocatorByName(name string, counter Counter) (Allocator, error) {
	switch name {
	case "", "counter":
		return NewCounterAllocator(), nil
	case "max_scan", "maxscan":
		return NewMaxScanAllocator(), nil
	case "redis":
		return NewRedisAllocator(counter)
	case "memory":
		return NewMemoryAllocator(), nil
	default:
		return nil, fmt.Errorf("unknown order number allocator %q", name)
	}
}
