package notifications

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/payloads"
)

// ConsumerName scopes idempotency keys for this worker.
const ConsumerName = "notifications-worker"

type eventDispatcher interface {
	OrderCreated(ctx context.Context, evt *payloads.OrderCreatedEvent) error
	OrderStatusChanged(ctx context.Context, evt *payloads.OrderStatusChangedEvent) error
	ContactSubmitted(ctx context.Context, evt *payloads.ContactSubmittedEvent) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
}

type messageCounter interface {
	IncMessage(consumer, eventType, outcome string)
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type ConsumerParams struct {
	Subscription *pubsub.Subscriber
	Decoders     payloadDecoder
	Dispatcher   eventDispatcher
	Guard        idempotencyGuard
	// Metrics is optional.
	Metrics messageCounter
	Logger  *logger.Logger
}

// Consumer turns published storefront events into notifications.
type Consumer struct {
	subscription receiver
	decoders     payloadDecoder
	dispatcher   eventDispatcher
	guard        idempotencyGuard
	metrics      messageCounter
	logg         *logger.Logger
}

func NewConsumer(p ConsumerParams) (*Consumer, error) {
	if p.Subscription == nil {
		return nil, errors.New("subscription required")
	}
	return newConsumer(p.Subscription, p)
}

func newConsumer(sub receiver, p ConsumerParams) (*Consumer, error) {
	switch {
	case p.Decoders == nil:
		return nil, errors.New("payload decoders required")
	case p.Dispatcher == nil:
		return nil, errors.New("dispatcher required")
	case p.Guard == nil:
		return nil, errors.New("idempotency guard required")
	case p.Logger == nil:
		return nil, errors.New("logger required")
	}
	return &Consumer{
		subscription: sub,
		decoders:     p.Decoders,
		dispatcher:   p.Dispatcher,
		guard:        p.Guard,
		metrics:      p.Metrics,
		logg:         p.Logger,
	}, nil
}

// Run blocks until ctx is canceled or the subscription fails.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) == outcomeRetry {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

const (
	outcomeDispatched = "dispatched"
	outcomePartial    = "partial"
	outcomeDuplicate  = "duplicate"
	outcomeDropped    = "dropped"
	outcomeRetry      = "retry"
)

// process nacks only while the idempotency store is unreachable. Delivery
// failures are acked like successes: mail is best-effort and a redelivery
// could reach customers twice.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) (outcome string) {
	eventType := msg.Attributes[outbox.AttrEventType]
	ctx = c.logg.WithFields(ctx, map[string]any{"message_id": msg.ID, "event_type": eventType})
	defer func() {
		if c.metrics != nil {
			c.metrics.IncMessage(ConsumerName, eventType, outcome)
		}
	}()

	d, err := outbox.ParseDelivery(msg.Attributes, msg.Data)
	if err != nil {
		c.logg.Error(ctx, "notification message dropped", err)
		return outcomeDropped
	}
	ctx = c.logg.WithField(ctx, "event_id", d.EventID.String())

	payload, err := c.decoders.Decode(d.EventType, d.Version, d.Data)
	if err != nil {
		c.logg.Error(ctx, "notification payload dropped", err)
		return outcomeDropped
	}

	seen, err := c.guard.CheckAndMarkProcessed(ctx, ConsumerName, d.EventID)
	if err != nil {
		c.logg.Error(ctx, "idempotency check failed", err)
		return outcomeRetry
	}
	if seen {
		c.logg.Info(ctx, "event already processed")
		return outcomeDuplicate
	}

	if err := c.dispatch(ctx, payload); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "notification delivery incomplete")
		return outcomePartial
	}
	c.logg.Info(ctx, "notifications dispatched")
	return outcomeDispatched
}

func (c *Consumer) dispatch(ctx context.Context, payload interface{}) error {
	switch evt := payload.(type) {
	case *payloads.OrderCreatedEvent:
		return c.dispatcher.OrderCreated(ctx, evt)
	case *payloads.OrderStatusChangedEvent:
		return c.dispatcher.OrderStatusChanged(ctx, evt)
	case *payloads.ContactSubmittedEvent:
		return c.dispatcher.ContactSubmitted(ctx, evt)
	default:
		c.logg.Info(ctx, "event not handled")
		return nil
	}
}
