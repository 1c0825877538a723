package contact

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db"
	"github.com/angelmondragon/gearhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func newContactService(t *testing.T, limiter rateLimiter) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		DB:      conn,
		Tx:      db.Wrap(conn),
		Outbox:  outbox.NewEmitter(outbox.NewRepository(conn), nil),
		Limiter: limiter,
		Config:  config.ContactConfig{RateLimitMax: 2, RateLimitWindow: time.Minute},
		Logger:  logger.Nop(),
	})
	require.NoError(t, err)
	return svc, conn
}

func validInput() SubmitInput {
	return SubmitInput{
		Name:     "  Grace Hopper ",
		Email:    "Grace@Example.com",
		Subject:  "Sizing question",
		Message:  "Does the 30L pack fit carry-on limits?",
		ClientIP: "203.0.113.7",
	}
}

func TestSubmitPersistsAndEmits(t *testing.T) {
	svc, conn := newContactService(t, &fakeLimiter{})

	result, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	require.True(t, result.Accepted)
	require.NotNil(t, result.ID)

	var stored models.ContactMessage
	require.NoError(t, conn.First(&stored, "id = ?", *result.ID).Error)
	assert.Equal(t, "Grace Hopper", stored.Name)
	assert.Equal(t, "grace@example.com", stored.Email)
	require.NotNil(t, stored.ClientIP)
	assert.Equal(t, "203.0.113.7", *stored.ClientIP)

	var event models.OutboxEvent
	require.NoError(t, conn.First(&event).Error)
	assert.Equal(t, enums.EventContactSubmitted, event.EventType)
	assert.Equal(t, enums.AggregateContactMessage, event.AggregateType)
	assert.Equal(t, *result.ID, event.AggregateID)
}

func TestSubmitValidatesFields(t *testing.T) {
	svc, _ := newContactService(t, nil)
	input := validInput()
	input.Name = "A"
	input.Email = "not-an-email"
	input.Message = strings.Repeat("x", 2001)

	_, err := svc.Submit(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "message")
	assert.NotContains(t, details, "subject")
}

func TestSubmitHoneypotDropsSilently(t *testing.T) {
	limiter := &fakeLimiter{}
	svc, conn := newContactService(t, limiter)
	input := validInput()
	input.Website = "http://spam.example"

	result, err := svc.Submit(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Nil(t, result.ID)

	var count int64
	require.NoError(t, conn.Model(&models.ContactMessage{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, limiter.counts)
}

func TestSubmitRateLimitsPerIP(t *testing.T) {
	svc, _ := newContactService(t, &fakeLimiter{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Submit(ctx, validInput())
		require.NoError(t, err)
	}
	_, err := svc.Submit(ctx, validInput())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, time.Minute, typed.RetryAfter())

	other := validInput()
	other.ClientIP = "198.51.100.1"
	_, err = svc.Submit(ctx, other)
	assert.NoError(t, err)
}

func TestSubmitFailsOpenWhenLimiterUnavailable(t *testing.T) {
	svc, _ := newContactService(t, &fakeLimiter{err: errors.New("redis down")})
	_, err := svc.Submit(context.Background(), validInput())
	assert.NoError(t, err)
}
