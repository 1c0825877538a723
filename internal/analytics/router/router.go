package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/gearhub-backend/internal/analytics/types"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/payloads"
)

var (
	ErrUnsupportedEventType = errors.New("unsupported analytics event type")
	ErrMalformedPayload     = errors.New("malformed analytics payload")
)

// Writer appends order facts to the warehouse.
type Writer interface {
	InsertOrderFact(ctx context.Context, row types.OrderFactRow) error
}

// Handler receives a delivery plus its decoded payload.
type Handler interface {
	Handle(ctx context.Context, d outbox.Delivery, payload any) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

// Router maps each event type to the handler that turns it into facts.
// Event types without a handler are reported as unsupported so the worker
// can ack them.
type Router struct {
	decoders payloadDecoder
	handlers map[enums.OutboxEventType]Handler
}

// NewRouter registers the order fact handlers. overrides may replace a
// registered handler but never add new event types.
func NewRouter(writer Writer, decoders payloadDecoder, logg *logger.Logger, overrides map[enums.OutboxEventType]Handler) (*Router, error) {
	switch {
	case writer == nil:
		return nil, errors.New("writer is required")
	case decoders == nil:
		return nil, errors.New("payload decoders are required")
	case logg == nil:
		return nil, errors.New("logger is required")
	}

	handlers := map[enums.OutboxEventType]Handler{
		enums.EventOrderCreated:       factHandler[payloads.OrderCreatedEvent]{writer, logg, time.Now, orderCreatedFact},
		enums.EventOrderStatusChanged: factHandler[payloads.OrderStatusChangedEvent]{writer, logg, time.Now, orderStatusFact},
	}
	for eventType, custom := range overrides {
		if _, known := handlers[eventType]; known && custom != nil {
			handlers[eventType] = custom
		}
	}
	return &Router{decoders: decoders, handlers: handlers}, nil
}

func (r *Router) Handle(ctx context.Context, d outbox.Delivery) error {
	handler, ok := r.handlers[d.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, d.EventType)
	}
	if len(d.Data) == 0 {
		return fmt.Errorf("%w: empty payload for %s", ErrMalformedPayload, d.EventType)
	}
	payload, err := r.decoders.Decode(d.EventType, max(d.Version, 1), d.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return handler.Handle(ctx, d, payload)
}
