package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

var ErrTxRequired = errors.New("outbox: transaction required")

// DomainEvent is a fact to publish once the surrounding transaction commits.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	// Version of Data's schema. Zero means 1.
	Version    int
	OccurredAt time.Time
}

func (e DomainEvent) validate() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("outbox: unknown event type %q", e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("outbox: unknown aggregate type %q", e.AggregateType)
	case e.AggregateID == uuid.Nil:
		return fmt.Errorf("outbox: %s event without aggregate id", e.EventType)
	}
	return nil
}

// Emitter appends domain events to outbox_events in the caller's
// transaction, so an event exists only if the change that produced it
// committed.
type Emitter struct {
	repo  *Repository
	logg  *logger.Logger
	now   func() time.Time
	newID func() string
}

func NewEmitter(repo *Repository, logg *logger.Logger) *Emitter {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Emitter{
		repo:  repo,
		logg:  logg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (e *Emitter) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return ErrTxRequired
	}
	row, envelope, err := e.build(event)
	if err != nil {
		return err
	}
	if err := e.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("outbox: insert %s: %w", event.EventType, err)
	}

	logCtx := e.logg.WithFields(ctx, map[string]any{
		"event_id":       envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
	})
	e.logg.Debug(logCtx, "outbox event queued")
	return nil
}

func (e *Emitter) build(event DomainEvent) (models.OutboxEvent, PayloadEnvelope, error) {
	if err := event.validate(); err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, err
	}
	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("outbox: encode %s data: %w", event.EventType, err)
	}

	envelope := PayloadEnvelope{
		Version:    max(event.Version, 1),
		EventID:    e.newID(),
		OccurredAt: event.OccurredAt.UTC(),
		Actor:      event.Actor,
		Data:       data,
	}
	if event.OccurredAt.IsZero() {
		envelope.OccurredAt = e.now()
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, err
	}

	return models.OutboxEvent{
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       body,
	}, envelope, nil
}
