package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResult struct{ err error }

func (r stubResult) Get(context.Context) (string, error) { return "id-1", r.err }

type stubTopic struct {
	msgs []*gcppubsub.Message
	err  error
}

func (s *stubTopic) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	s.msgs = append(s.msgs, msg)
	return stubResult{err: s.err}
}

func TestPubSubRealtimeSetsChannelAttributes(t *testing.T) {
	topic := &stubTopic{}
	rt := &PubSubRealtime{topic: topic}
	userID := uuid.New()

	require.NoError(t, rt.Send(context.Background(), UserChannel(userID), EventOrderStatusUpdated, map[string]string{"status": "DELIVERED"}))
	require.Len(t, topic.msgs, 1)
	msg := topic.msgs[0]
	assert.Equal(t, "user-"+userID.String(), msg.Attributes["channel"])
	assert.Equal(t, "order-status-updated", msg.Attributes["event"])

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, "DELIVERED", body["status"])
}

func TestPubSubRealtimeSurfacesPublishErrors(t *testing.T) {
	rt := &PubSubRealtime{topic: &stubTopic{err: errors.New("unavailable")}}
	err := rt.Send(context.Background(), AdminChannel, EventOrderCreated, nil)
	assert.ErrorContains(t, err, "unavailable")

	_, err = NewPubSubRealtime(nil)
	assert.Error(t, err)
}
