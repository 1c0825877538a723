package worker

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/internal/analytics/router"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox"
)

// ConsumerName scopes idempotency keys and metrics for this worker.
const ConsumerName = "analytics-worker"

// Handler turns one delivery into warehouse rows.
type Handler interface {
	Handle(ctx context.Context, d outbox.Delivery) error
}

type claimStore interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type outcomeRecorder interface {
	IncMessage(consumer, eventType, outcome string)
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type ServiceParams struct {
	Subscription *gcppubsub.Subscriber
	Handler      Handler
	Claims       claimStore
	// Metrics is optional.
	Metrics outcomeRecorder
	Logger  *logger.Logger
}

// Service feeds the analytics subscription into a Handler, at most once per
// event id.
type Service struct {
	subscription receiver
	handler      Handler
	claims       claimStore
	metrics      outcomeRecorder
	logg         *logger.Logger
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Subscription == nil {
		return nil, errors.New("analytics subscription is required")
	}
	return newService(p.Subscription, p)
}

func newService(sub receiver, p ServiceParams) (*Service, error) {
	switch {
	case p.Handler == nil:
		return nil, errors.New("analytics handler is required")
	case p.Claims == nil:
		return nil, errors.New("idempotency claims are required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	}
	return &Service{subscription: sub, handler: p.Handler, claims: p.Claims, metrics: p.Metrics, logg: p.Logger}, nil
}

type disposition string

const (
	handled   disposition = "handled"
	duplicate disposition = "duplicate"
	skipped   disposition = "skipped"
	retry     disposition = "retry"
)

// Run blocks until ctx is canceled or the subscription fails.
func (s *Service) Run(ctx context.Context) error {
	return s.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		if s.process(ctx, msg) == retry {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process only asks for redelivery when the idempotency store or the
// warehouse failed. Anything wrong with the message itself is acked and
// logged since redelivery would fail the same way.
func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) (verdict disposition) {
	ctx = s.logg.WithField(ctx, "message_id", msg.ID)
	eventType := msg.Attributes[outbox.AttrEventType]
	defer func() { s.record(eventType, verdict) }()

	d, err := outbox.ParseDelivery(msg.Attributes, msg.Data)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analytics message dropped")
		return skipped
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":     d.EventID.String(),
		"event_type":   d.EventType,
		"aggregate_id": d.AggregateID,
	})

	seen, err := s.claims.CheckAndMarkProcessed(ctx, ConsumerName, d.EventID)
	if err != nil {
		s.logg.Error(ctx, "idempotency check failed", err)
		return retry
	}
	if seen {
		s.logg.Debug(ctx, "analytics event already applied")
		return duplicate
	}

	err = s.handler.Handle(ctx, d)
	switch {
	case err == nil:
		return handled
	case errors.Is(err, router.ErrUnsupportedEventType), errors.Is(err, router.ErrMalformedPayload):
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analytics event skipped")
		return skipped
	}

	s.logg.Error(ctx, "analytics handler failed", err)
	if relErr := s.claims.Release(ctx, ConsumerName, d.EventID); relErr != nil {
		s.logg.Error(ctx, "idempotency release failed", relErr)
	}
	return retry
}

func (s *Service) record(eventType string, v disposition) {
	if s.metrics != nil {
		s.metrics.IncMessage(ConsumerName, eventType, string(v))
	}
}
