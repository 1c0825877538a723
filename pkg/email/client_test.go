package email

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

type fakeAPI struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeAPI) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, m)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status, Body: "{}"}, nil
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	c, err := NewClient(config.SendgridConfig{DefaultFrom: "orders@gearhub.dev", FromName: "GearHub"}, logger.Nop())
	require.NoError(t, err)
	if api != nil {
		c.api = api
	}
	return c
}

func TestSendBuildsMessage(t *testing.T) {
	api := &fakeAPI{status: 202}
	c := newTestClient(t, api)

	err := c.Send(context.Background(), Message{
		To:      []string{"ops@gearhub.dev", " OPS@gearhub.dev ", "", "owner@gearhub.dev"},
		ReplyTo: "ada@example.com",
		Subject: "New order",
		Text:    "plain",
		HTML:    "<p>html</p>",
	})
	require.NoError(t, err)
	require.Len(t, api.sent, 1)

	m := api.sent[0]
	assert.Equal(t, "orders@gearhub.dev", m.From.Address)
	assert.Equal(t, "GearHub", m.From.Name)
	assert.Equal(t, "ada@example.com", m.ReplyTo.Address)
	require.Len(t, m.Personalizations, 1)
	require.Len(t, m.Personalizations[0].To, 2)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}

func TestSendMapsFailures(t *testing.T) {
	c := newTestClient(t, &fakeAPI{status: 400})
	err := c.Send(context.Background(), Message{To: []string{"a@b.co"}, Subject: "x", Text: "y"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	c = newTestClient(t, &fakeAPI{err: errors.New("dial")})
	err = c.Send(context.Background(), Message{To: []string{"a@b.co"}, Subject: "x", Text: "y"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestSendValidatesAndDisabledDrops(t *testing.T) {
	c := newTestClient(t, nil)
	assert.False(t, c.Enabled())

	err := c.Send(context.Background(), Message{Subject: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	err = c.Send(context.Background(), Message{To: []string{"a@b.co"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.NoError(t, c.Send(context.Background(), Message{To: []string{"a@b.co"}, Subject: "x", Text: "y"}))
}

func TestNewClientRequiresFrom(t *testing.T) {
	_, err := NewClient(config.SendgridConfig{}, nil)
	assert.Error(t, err)
}
