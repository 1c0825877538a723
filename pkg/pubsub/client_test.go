package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/gcp"
)

func testPubSubConfig() config.PubSubConfig {
	return config.PubSubConfig{
		OrdersTopic:              "gh-order-events",
		SupportTopic:             "gh-support-events",
		RealtimeTopic:            " ",
		NotificationSubscription: "gh-order-events-notifications",
		SupportSubscription:      "gh-support-events-notifications",
		AnalyticsSubscription:    "gh-order-events-analytics",
	}
}

func TestNeedsPerProcess(t *testing.T) {
	cfg := testPubSubConfig()

	assert.Equal(t, []string{"gh-order-events", "gh-support-events"}, PublisherNeeds(cfg).Topics)
	assert.Empty(t, PublisherNeeds(cfg).Subscriptions)

	n := NotificationNeeds(cfg)
	assert.Empty(t, n.Topics, "blank realtime topic is skipped")
	assert.Equal(t, []string{"gh-order-events-notifications", "gh-support-events-notifications"}, n.Subscriptions)

	assert.Equal(t, []string{"gh-order-events-analytics"}, AnalyticsNeeds(cfg).Subscriptions)
}

func TestNewClientValidatesInput(t *testing.T) {
	ctx := context.Background()
	_, err := NewClient(ctx, config.GCPConfig{}, testPubSubConfig(), AnalyticsNeeds(testPubSubConfig()), nil)
	assert.ErrorIs(t, err, gcp.ErrProjectIDRequired)

	_, err = NewClient(ctx, config.GCPConfig{ProjectID: "p"}, testPubSubConfig(), Needs{}, nil)
	assert.Error(t, err)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("x"))
	assert.Nil(t, c.Subscriber("x"))
	assert.Nil(t, c.NotificationSubscription())
	assert.Nil(t, c.SupportSubscription())
	assert.Nil(t, c.AnalyticsSubscription())
	assert.Nil(t, c.RealtimePublisher())
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}
