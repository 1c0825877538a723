package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
)

const (
	// AdminChannel receives storefront-wide events for the dashboard.
	AdminChannel = "admin-notifications"

	EventOrderCreated       = "order-created"
	EventOrderStatusUpdated = "order-status-updated"
)

// UserChannel is the private realtime channel of one customer.
func UserChannel(userID uuid.UUID) string {
	return "user-" + userID.String()
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type pubsubTopic struct {
	publisher *gcppubsub.Publisher
}

func (p pubsubTopic) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.publisher.Publish(ctx, msg)
}

// PubSubRealtime fans realtime events out through a Pub/Sub topic. A gateway
// subscribed to the topic forwards each message to its channel.
type PubSubRealtime struct {
	topic topicPublisher
}

// NewPubSubRealtime wraps the realtime topic publisher.
func NewPubSubRealtime(publisher *gcppubsub.Publisher) (*PubSubRealtime, error) {
	if publisher == nil {
		return nil, fmt.Errorf("realtime publisher required")
	}
	return &PubSubRealtime{topic: pubsubTopic{publisher: publisher}}, nil
}

// Send publishes data as JSON with channel and event attributes.
func (r *PubSubRealtime) Send(ctx context.Context, channel, event string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal realtime payload: %w", err)
	}
	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"channel": channel,
			"event":   event,
		},
	}
	if _, err := r.topic.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("publish realtime %s on %s: %w", event, channel, err)
	}
	return nil
}
