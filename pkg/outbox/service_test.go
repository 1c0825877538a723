package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/payloads"
)

func fixedEmitter(conn *gorm.DB, at time.Time) *Emitter {
	e := NewEmitter(NewRepository(conn), nil)
	e.now = func() time.Time { return at }
	e.newID = func() string { return "evt-1" }
	return e
}

func TestEmitWritesEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	orderID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return fixedEmitter(conn, at).Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          payloads.OrderCreatedEvent{OrderID: orderID, OrderNumber: "GH2610190001"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, orderID, rows[0].AggregateID)
	assert.Nil(t, rows[0].PublishedAt)

	envelope, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, 1, envelope.Version)
	assert.Equal(t, "evt-1", envelope.EventID)
	assert.True(t, envelope.OccurredAt.Equal(at))
	assert.Contains(t, string(envelope.Data), `"order_number":"GH2610190001"`)
}

func TestEmitKeepsCallerTimestampAndVersion(t *testing.T) {
	conn := dbtest.Open(t)
	occurred := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CST", -6*3600))

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return fixedEmitter(conn, time.Now()).Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Version:       2,
			OccurredAt:    occurred,
			Data:          map[string]string{"status": "DISPATCHED"},
		})
	}))

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row).Error)
	envelope, err := DecodeEnvelope(row.Payload)
	require.NoError(t, err)
	assert.Equal(t, 2, envelope.Version)
	assert.True(t, envelope.OccurredAt.Equal(occurred))
	assert.Equal(t, time.UTC, envelope.OccurredAt.Location())
}

func TestEmitRejectsMalformedEvents(t *testing.T) {
	conn := dbtest.Open(t)
	e := NewEmitter(NewRepository(conn), nil)

	cases := map[string]DomainEvent{
		"event type":     {EventType: "order_shipped", AggregateType: enums.AggregateOrder, AggregateID: uuid.New()},
		"aggregate type": {EventType: enums.EventOrderCreated, AggregateType: "cart", AggregateID: uuid.New()},
		"aggregate id":   {EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder},
		"data":           {EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Data: make(chan int)},
	}
	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			err := conn.Transaction(func(tx *gorm.DB) error {
				return e.Emit(context.Background(), tx, event)
			})
			assert.Error(t, err)
		})
	}

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitRequiresTransaction(t *testing.T) {
	e := NewEmitter(NewRepository(nil), nil)
	err := e.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderCreated})
	assert.ErrorIs(t, err, ErrTxRequired)
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	e := NewEmitter(NewRepository(conn), nil)

	boom := errors.New("order insert failed")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := e.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventContactSubmitted,
			AggregateType: enums.AggregateContactMessage,
			AggregateID:   uuid.New(),
			Data:          payloads.ContactSubmittedEvent{},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	first := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		CreatedAt:     time.Now().Add(-time.Minute),
	}
	second := models.OutboxEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		CreatedAt:     time.Now(),
	}
	require.NoError(t, repo.Insert(conn, first, second))
	require.NoError(t, repo.Insert(conn))

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.EventOrderCreated, rows[0].EventType)

	require.NoError(t, repo.MarkPublishedTx(conn, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("pubsub unavailable")))

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)

	require.NoError(t, repo.MarkTerminalTx(conn, rows[0].ID, errors.New("bad payload"), 3))
	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
