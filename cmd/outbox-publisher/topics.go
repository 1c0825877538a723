package main

import (
	"context"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type pubsubClient interface {
	Ping(ctx context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

// topicPublishers lazily opens one ordered publisher per topic and flushes
// them all on Stop.
type topicPublishers struct {
	client pubsubClient
	mu     sync.Mutex
	open   map[string]*gcppubsub.Publisher
}

func newTopicPublishers(client pubsubClient) *topicPublishers {
	return &topicPublishers{client: client, open: map[string]*gcppubsub.Publisher{}}
}

func (t *topicPublishers) Ping(ctx context.Context) error {
	return t.client.Ping(ctx)
}

func (t *topicPublishers) For(topic string) publisher {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.open[topic]
	if !ok {
		p = t.client.Publisher(topic)
		if p == nil {
			return nil
		}
		p.EnableMessageOrdering = true
		t.open[topic] = p
	}
	return orderedPublisher{p}
}

func (t *topicPublishers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for topic, p := range t.open {
		p.Stop()
		delete(t.open, topic)
	}
}

type orderedPublisher struct {
	p *gcppubsub.Publisher
}

func (o orderedPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return orderedResult{res: o.p.Publish(ctx, msg), p: o.p, key: msg.OrderingKey}
}

type orderedResult struct {
	res *gcppubsub.PublishResult
	p   *gcppubsub.Publisher
	key string
}

// Get waits for the ack. A failed ordered publish pauses its key until
// resumed, so the next attempt for that order is let through here.
func (o orderedResult) Get(ctx context.Context) (string, error) {
	id, err := o.res.Get(ctx)
	if err != nil && o.key != "" {
		o.p.ResumePublish(o.key)
	}
	return id, err
}
