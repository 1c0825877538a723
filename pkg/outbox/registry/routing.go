package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox"
)

// EventDescriptor is where an event type goes and what it carries.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Version       int
	Topic         string
}

// ResolvedEvent is an outbox row that passed every check and is ready to
// publish.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// NonRetryableError marks a row that can never be published as stored.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func poison(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

type routedEvent struct {
	EventDescriptor
	payload func() any
}

// EventRegistry routes outbox rows to topics.
type EventRegistry struct {
	routes map[enums.OutboxEventType]routedEvent
}

// NewEventRegistry binds every cataloged event to its configured topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topics := map[stream]string{
		orderStream:   cfg.OrdersTopic,
		supportStream: cfg.SupportTopic,
	}
	var missing []error
	if cfg.OrdersTopic == "" {
		missing = append(missing, errors.New("orders topic is required"))
	}
	if cfg.SupportTopic == "" {
		missing = append(missing, errors.New("support topic is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	reg := &EventRegistry{routes: make(map[enums.OutboxEventType]routedEvent, len(catalog))}
	for _, entry := range catalog {
		reg.routes[entry.eventType] = routedEvent{
			EventDescriptor: EventDescriptor{
				EventType:     entry.eventType,
				AggregateType: entry.aggregate,
				Version:       entry.version,
				Topic:         topics[entry.stream],
			},
			payload: entry.payload,
		}
	}
	return reg, nil
}

// Topics lists the distinct topics events are routed to, sorted.
func (r *EventRegistry) Topics() []string {
	var topics []string
	for _, route := range r.routes {
		if !slices.Contains(topics, route.Topic) {
			topics = append(topics, route.Topic)
		}
	}
	slices.Sort(topics)
	return topics
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every failure is non-retryable: the row will not change by waiting.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	route, ok := r.routes[event.EventType]
	switch {
	case !ok:
		return nil, poison("unsupported event type %s", event.EventType)
	case route.AggregateType != event.AggregateType:
		return nil, poison("aggregate mismatch: expected %s got %s", route.AggregateType, event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return nil, poison("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, poison("decode envelope: %w", err)
	}
	if envelope.Version != route.Version {
		return nil, poison("%s@v%d is not publishable, registry has v%d", event.EventType, envelope.Version, route.Version)
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, poison("payload missing for %s", event.EventType)
	}

	payload := route.payload()
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, poison("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: route.EventDescriptor, Envelope: envelope, Payload: payload}, nil
}
