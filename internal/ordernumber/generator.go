package ordernumber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db"
)

const (
	OutcomeAllocated = "allocated"
	OutcomeExhausted = "exhausted"
	OutcomeRace      = "race"

	savepointName = "order_number"
)

// uniqueConstraints name the order_number unique index on postgres and sqlite.
var uniqueConstraints = []string{"ux_orders_order_number", "orders.order_number"}

type metricsRecorder interface {
	IncAllocation(outcome string)
}

// Options configures a Generator.
type Options struct {
	Prefix    string
	Location  *time.Location
	Allocator Allocator
	Now       func() time.Time
	Metrics   metricsRecorder
}

// Generator issues order numbers.
type Generator struct {
	prefix  string
	loc     *time.Location
	alloc   Allocator
	now     func() time.Time
	metrics metricsRecorder
}

// NewGenerator validates opts and fills defaults.
func NewGenerator(opts Options) (*Generator, error) {
	if opts.Allocator == nil {
		return nil, errors.New("order number allocator required")
	}
	prefix := strings.ToUpper(strings.TrimSpace(opts.Prefix))
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if last := prefix[len(prefix)-1]; last >= '0' && last <= '9' {
		return nil, fmt.Errorf("order number prefix %q must not end in a digit", prefix)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{prefix: prefix, loc: loc, alloc: opts.Allocator, now: now, metrics: opts.Metrics}, nil
}

// FromConfig builds a generator from the order number config section.
func FromConfig(cfg config.OrderNumberConfig, counter Counter, metrics metricsRecorder) (*Generator, error) {
	alloc, err := AllocatorByName(cfg.Allocator, counter)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return NewGenerator(Options{Prefix: cfg.Prefix, Location: loc, Allocator: alloc, Metrics: metrics})
}

// Prefix returns the configured prefix.
func (g *Generator) Prefix() string { return g.prefix }

// CurrentDayKey is the day key for the generator clock.
func (g *Generator) CurrentDayKey() string {
	return DayKey(g.prefix, g.now(), g.loc)
}

// Next allocates the next order number for the current day.
func (g *Generator) Next(ctx context.Context, tx *gorm.DB) (string, error) {
	dayKey := g.CurrentDayKey()
	seq, err := g.alloc.Allocate(ctx, tx, dayKey)
	if err != nil {
		return "", err
	}
	number, err := sequenceToNumber(dayKey, seq)
	if err != nil {
		if errors.Is(err, ErrSequenceExhausted) {
			g.record(OutcomeExhausted)
		}
		return "", err
	}
	g.record(OutcomeAllocated)
	return number, nil
}

// InsertFunc persists a row carrying number.
type InsertFunc func(tx *gorm.DB, number string) error

// Assign allocates a number and runs insert with it. A unique violation on the
// order number rolls back to a savepoint and retries once with a fresh
// allocation; a second collision returns ErrStaleSequenceRace.
func (g *Generator) Assign(ctx context.Context, tx *gorm.DB, insert InsertFunc) (string, error) {
	if insert == nil {
		return "", errors.New("insert func required")
	}
	for attempt := 0; attempt < 2; attempt++ {
		number, err := g.Next(ctx, tx)
		if err != nil {
			return "", err
		}
		if tx != nil {
			if err := tx.SavePoint(savepointName).Error; err != nil {
				return "", fmt.Errorf("savepoint: %w", err)
			}
		}
		err = insert(tx, number)
		if err == nil {
			return number, nil
		}
		if !isOrderNumberConflict(err) {
			return "", err
		}
		g.record(OutcomeRace)
		if tx != nil {
			if rbErr := tx.RollbackTo(savepointName).Error; rbErr != nil {
				return "", fmt.Errorf("rollback to savepoint: %w", rbErr)
			}
		}
	}
	return "", ErrStaleSequenceRace
}

func (g *Generator) record(outcome string) {
	if g.metrics != nil {
		g.metrics.IncAllocation(outcome)
	}
}

func isOrderNumberConflict(err error) bool {
	for _, name := range uniqueConstraints {
		if db.IsUniqueViolation(err, name) {
			return true
		}
	}
	return false
}
