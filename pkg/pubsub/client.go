package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/gcp"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

var errNotInitialized = errors.New("pubsub client not initialized")

// Needs lists the topics and subscriptions a process relies on. They are
// checked at startup and again by Ping, so a deleted subscription shows up
// as a failed readiness probe rather than a silent stall.
type Needs struct {
	Topics        []string
	Subscriptions []string
}

// PublisherNeeds is what the outbox relay writes to.
func PublisherNeeds(cfg config.PubSubConfig) Needs {
	return Needs{Topics: compact(cfg.OrdersTopic, cfg.SupportTopic)}
}

// NotificationNeeds covers the notifications worker: both event streams in,
// the realtime fan-out topic out.
func NotificationNeeds(cfg config.PubSubConfig) Needs {
	return Needs{
		Topics:        compact(cfg.RealtimeTopic),
		Subscriptions: compact(cfg.NotificationSubscription, cfg.SupportSubscription),
	}
}

// AnalyticsNeeds covers the analytics worker.
func AnalyticsNeeds(cfg config.PubSubConfig) Needs {
	return Needs{Subscriptions: compact(cfg.AnalyticsSubscription)}
}

type Client struct {
	client  *pubsub.Client
	project string
	cfg     config.PubSubConfig
	needs   Needs
}

// NewClient connects to Pub/Sub and fails if anything in needs is missing.
func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.PubSubConfig, needs Needs, logg *logger.Logger) (*Client, error) {
	project, err := gcp.Project(gcpCfg)
	if err != nil {
		return nil, err
	}
	if len(needs.Topics) == 0 && len(needs.Subscriptions) == 0 {
		return nil, errors.New("pubsub: no topics or subscriptions requested")
	}

	raw, err := pubsub.NewClient(ctx, project, gcp.ClientOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	c := &Client{client: raw, project: project, cfg: cfg, needs: needs}
	if err := c.verify(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"topics":        needs.Topics,
			"subscriptions": needs.Subscriptions,
		}), "pubsub client ready")
	}
	return c, nil
}

func (c *Client) verify(ctx context.Context) error {
	for _, name := range c.needs.Topics {
		full := gcp.ResourceName(c.project, "topics", name)
		if _, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full}); err != nil {
			return describe("topic", name, err)
		}
	}
	for _, name := range c.needs.Subscriptions {
		full := gcp.ResourceName(c.project, "subscriptions", name)
		if _, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: full}); err != nil {
			return describe("subscription", name, err)
		}
	}
	return nil
}

func describe(kind, name string, err error) error {
	if gcp.IsNotFound(err) {
		return fmt.Errorf("%s %q does not exist", kind, name)
	}
	return fmt.Errorf("check %s %q: %w", kind, name, err)
}

// Ping re-runs the startup checks.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	return c.verify(ctx)
}

// Subscriber accepts a short id or a full resource name.
func (c *Client) Subscriber(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	full := gcp.ResourceName(c.project, "subscriptions", name)
	if full == "" {
		return nil
	}
	return c.client.Subscriber(full)
}

func (c *Client) NotificationSubscription() *pubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscriber(c.cfg.NotificationSubscription)
}

func (c *Client) SupportSubscription() *pubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscriber(c.cfg.SupportSubscription)
}

func (c *Client) AnalyticsSubscription() *pubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscriber(c.cfg.AnalyticsSubscription)
}

// Publisher accepts a short id or a full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := gcp.ResourceName(c.project, "topics", name)
	if full == "" {
		return nil
	}
	return c.client.Publisher(full)
}

// RealtimePublisher feeds the browser push fan-out.
func (c *Client) RealtimePublisher() *pubsub.Publisher {
	if c == nil {
		return nil
	}
	return c.Publisher(c.cfg.RealtimeTopic)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func compact(names ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
