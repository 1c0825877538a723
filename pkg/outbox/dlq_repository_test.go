package outbox

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
)

func deadLetter(reason enums.OutboxDLQErrorReason, failedAt time.Time, msg string) models.OutboxDLQ {
	return models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  10,
		FailedAt:      failedAt,
	}
}

func TestDLQInsertClipsMessageOnRuneBoundary(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewDLQRepository(conn)
	long := strings.Repeat("é", maxDLQErrorLen)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.InsertTx(tx, deadLetter(enums.OutboxDLQReasonMaxAttempts, time.Now(), long))
	}))

	var stored models.OutboxDLQ
	require.NoError(t, conn.First(&stored).Error)
	require.NotNil(t, stored.ErrorMessage)
	assert.LessOrEqual(t, len(*stored.ErrorMessage), maxDLQErrorLen)
	assert.True(t, strings.HasSuffix(*stored.ErrorMessage, "é"))
}

func TestDLQInsertRejectsUnknownReason(t *testing.T) {
	conn := dbtest.Open(t)
	err := NewDLQRepository(conn).InsertTx(conn, deadLetter("gave_up", time.Now(), "x"))
	assert.Error(t, err)
}

func TestDLQPruneAndCount(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewDLQRepository(conn)
	now := time.Now().UTC()

	for _, entry := range []models.OutboxDLQ{
		deadLetter(enums.OutboxDLQReasonMaxAttempts, now.Add(-40*24*time.Hour), "old"),
		deadLetter(enums.OutboxDLQReasonNonRetryable, now.Add(-time.Hour), "recent"),
		deadLetter(enums.OutboxDLQReasonNonRetryable, now, "fresh"),
	} {
		require.NoError(t, repo.InsertTx(conn, entry))
	}

	counts, err := repo.CountByReason(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[enums.OutboxDLQReasonMaxAttempts])
	assert.Equal(t, int64(2), counts[enums.OutboxDLQReasonNonRetryable])

	deleted, err := repo.PruneBefore(context.Background(), now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	counts, err = repo.CountByReason(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts[enums.OutboxDLQReasonMaxAttempts])
}
