package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
)

// Message attribute keys. The body stays the stored envelope; attributes let
// subscribers filter and route without decoding it.
const (
	AttrEventID       = "event_id"
	AttrEventType     = "event_type"
	AttrAggregateType = "aggregate_type"
	AttrAggregateID   = "aggregate_id"
	AttrVersion       = "version"
	AttrCreatedAt     = "created_at"
)

// ErrMalformedDelivery wraps every reason ParseDelivery rejects a message.
// Redelivering such a message can never succeed.
var ErrMalformedDelivery = errors.New("malformed delivery")

// Attributes mirrors an outbox row onto message attributes.
func Attributes(event models.OutboxEvent, envelope PayloadEnvelope) map[string]string {
	return map[string]string{
		AttrEventID:       envelope.EventID,
		AttrEventType:     string(event.EventType),
		AttrAggregateType: string(event.AggregateType),
		AttrAggregateID:   event.AggregateID.String(),
		AttrVersion:       strconv.Itoa(envelope.Version),
		AttrCreatedAt:     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Delivery is a published event as a subscriber sees it.
type Delivery struct {
	EventID       uuid.UUID
	EventType     enums.OutboxEventType
	Version       int
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	OccurredAt    time.Time
	Actor         *ActorRef
	Data          json.RawMessage
}

// ParseDelivery rebuilds a Delivery from a message. The envelope body wins
// over attributes; attributes fill what an older envelope left out.
func ParseDelivery(attrs map[string]string, body []byte) (Delivery, error) {
	attr := func(key string) string { return strings.TrimSpace(attrs[key]) }
	malformed := func(format string, args ...any) (Delivery, error) {
		return Delivery{}, fmt.Errorf("%w: %s", ErrMalformedDelivery, fmt.Sprintf(format, args...))
	}

	envelope, err := DecodeEnvelope(body)
	if err != nil {
		return malformed("envelope: %v", err)
	}

	d := Delivery{
		Version:     envelope.Version,
		AggregateID: attr(AttrAggregateID),
		OccurredAt:  envelope.OccurredAt,
		Actor:       envelope.Actor,
		Data:        envelope.Data,
	}

	if d.EventType, err = enums.ParseOutboxEventType(attr(AttrEventType)); err != nil {
		return malformed("%v", err)
	}
	if raw := attr(AttrAggregateType); raw != "" {
		if d.AggregateType, err = enums.ParseOutboxAggregateType(raw); err != nil {
			return malformed("%v", err)
		}
	}
	if d.AggregateID == "" {
		return malformed("aggregate_id missing")
	}

	rawID := strings.TrimSpace(envelope.EventID)
	if rawID == "" {
		rawID = attr(AttrEventID)
	}
	if d.EventID, err = uuid.Parse(rawID); err != nil {
		return malformed("event_id %q", rawID)
	}

	if d.Version <= 0 {
		d.Version, _ = strconv.Atoi(attr(AttrVersion))
	}
	if d.Version <= 0 {
		d.Version = 1
	}
	if d.OccurredAt.IsZero() {
		d.OccurredAt, _ = time.Parse(time.RFC3339Nano, attr(AttrCreatedAt))
	}
	d.OccurredAt = d.OccurredAt.UTC()

	if trimmed := bytes.TrimSpace(d.Data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return malformed("%s carries no data", d.EventType)
	}
	return d, nil
}
