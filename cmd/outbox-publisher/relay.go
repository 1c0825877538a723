package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/metrics"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	publishTimeout     = 15 * time.Second
	maxIdleBackoff     = 10 * time.Second
)

type txRunner interface {
	Ping(ctx context.Context) error
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventStore interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type deadLetterStore interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type resolver interface {
	Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// topicSource hands out one publisher per topic.
type topicSource interface {
	For(topic string) publisher
	Ping(ctx context.Context) error
	Stop()
}

type RelayParams struct {
	Outbox      config.OutboxConfig
	Logger      *logger.Logger
	DB          txRunner
	Events      eventStore
	DeadLetters deadLetterStore
	Registry    resolver
	Topics      topicSource
	Metrics     *metrics.OutboxMetrics
}

// Relay moves committed outbox rows to Pub/Sub. Each batch runs in one
// transaction so the row state and the publish outcome commit together.
type Relay struct {
	logg        *logger.Logger
	db          txRunner
	events      eventStore
	deadLetters deadLetterStore
	registry    resolver
	topics      topicSource
	metrics     *metrics.OutboxMetrics
	batchSize   int
	maxAttempts int
	poll        time.Duration
	now         func() time.Time
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.Events == nil:
		return nil, errors.New("outbox repository is required")
	case p.DeadLetters == nil:
		return nil, errors.New("dlq repository is required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	case p.Topics == nil:
		return nil, errors.New("topic publishers are required")
	}

	r := &Relay{
		logg:        p.Logger,
		db:          p.DB,
		events:      p.Events,
		deadLetters: p.DeadLetters,
		registry:    p.Registry,
		topics:      p.Topics,
		metrics:     p.Metrics,
		batchSize:   p.Outbox.BatchSize,
		maxAttempts: p.Outbox.MaxAttempts,
		poll:        time.Duration(p.Outbox.PollIntervalMS) * time.Millisecond,
		now:         time.Now,
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxAttempts
	}
	if r.poll <= 0 {
		r.poll = defaultPoll
	}
	return r, nil
}

// Run drains the outbox until ctx ends. A full batch is followed straight
// away by the next one; otherwise the relay sleeps one poll interval, and
// repeated errors back off up to maxIdleBackoff.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	if err := r.topics.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping: %w", err)
	}
	defer r.topics.Stop()

	wait := newBackoff(r.poll, maxIdleBackoff)
	for {
		n, err := r.drain(ctx)
		var pause time.Duration
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			r.logg.Error(ctx, "outbox batch failed", err)
			pause = wait.next()
		case n >= r.batchSize:
			wait.reset()
			continue
		default:
			wait.reset()
			pause = jitter(r.poll)
		}
		if err := sleepCtx(ctx, pause); err != nil {
			return err
		}
	}
}

// drain claims one batch and settles every row in it. It returns how many
// rows were claimed.
func (r *Relay) drain(ctx context.Context) (int, error) {
	claimed := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.events.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim batch: %w", err)
		}
		claimed = len(events)
		if claimed == 0 {
			r.metrics.SetLag(0)
			return nil
		}
		r.metrics.SetLag(r.now().Sub(events[0].CreatedAt))

		for _, event := range events {
			if err := r.settle(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return claimed, err
}

// settle publishes one row and records the outcome. Only storage errors are
// returned; publish errors become retries or dead letters.
func (r *Relay) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	resolved, err := r.registry.Resolve(event)
	topic := ""
	if err == nil {
		topic = resolved.Descriptor.Topic
		err = r.publish(ctx, event, resolved)
	}
	v := judge(event.AttemptCount+1, r.maxAttempts, err)

	logCtx := r.logg.WithFields(ctx, eventFields(event, resolved))
	switch v.kind {
	case outcomePublished:
		if err := r.events.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		r.logg.Debug(logCtx, "outbox event published")
	case outcomeRetry:
		if err := r.events.MarkFailedTx(tx, event.ID, v.err); err != nil {
			return fmt.Errorf("mark failed %s: %w", event.ID, err)
		}
		r.logg.Warn(r.logg.WithField(logCtx, "error", v.err.Error()), "outbox publish failed, will retry")
	case outcomeDeadLetter:
		if err := r.bury(tx, event, v); err != nil {
			return err
		}
		r.logg.Warn(r.logg.WithFields(logCtx, map[string]any{
			"error":        v.err.Error(),
			"error_reason": v.reason,
		}), "outbox event dead-lettered")
	}
	r.metrics.IncPublish(topic, v.kind.String())
	return nil
}

func (r *Relay) bury(tx *gorm.DB, event models.OutboxEvent, v verdict) error {
	msg := v.err.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   v.reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount + 1,
		FailedAt:      r.now().UTC(),
	}
	if err := r.deadLetters.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := r.events.MarkTerminalTx(tx, event.ID, v.err, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (r *Relay) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	pub := r.topics.For(resolved.Descriptor.Topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %q", resolved.Descriptor.Topic))
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	_, err := pub.Publish(ctx, buildMessage(event, resolved)).Get(ctx)
	return err
}

// buildMessage carries the stored envelope as-is and mirrors the routing
// fields into attributes so consumers can filter without decoding.
func buildMessage(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	msg := &gcppubsub.Message{
		Data:       event.Payload,
		Attributes: outbox.Attributes(event, resolved.Envelope),
	}
	// Events of one order stay in sequence: a status change never overtakes
	// the creation it refers to.
	if event.AggregateType == enums.AggregateOrder {
		msg.OrderingKey = event.AggregateID.String()
	}
	return msg
}

func eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt":        event.AttemptCount + 1,
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		fields["event_id"] = resolved.Envelope.EventID
	}
	return fields
}
