package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/pagination"
)

// memoryInbox is a Repository that keeps rows in insertion order.
type memoryInbox struct {
	rows      []models.Notification
	lastLimit int
	lastScope Filter
	failWith  error
}

func (m *memoryInbox) WithTx(*gorm.DB) Repository { return m }

func (m *memoryInbox) Create(_ context.Context, n *models.Notification) error {
	m.rows = append(m.rows, *n)
	return nil
}

func (m *memoryInbox) Page(_ context.Context, filter Filter, after *pagination.Cursor, limit int) ([]models.Notification, error) {
	m.lastLimit, m.lastScope = limit, filter
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []models.Notification
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		row := m.rows[i]
		if after != nil && !row.CreatedAt.Before(after.CreatedAt) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memoryInbox) UnreadCounts(context.Context) (map[enums.NotificationType]int64, error) {
	counts := map[enums.NotificationType]int64{}
	for _, row := range m.rows {
		if row.ReadAt == nil {
			counts[row.Type]++
		}
	}
	return counts, nil
}

func (m *memoryInbox) MarkRead(_ context.Context, id uuid.UUID, at time.Time) (*models.Notification, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			if m.rows[i].ReadAt == nil {
				m.rows[i].ReadAt = &at
			}
			row := m.rows[i]
			return &row, nil
		}
	}
	return nil, m.failWith
}

func (m *memoryInbox) MarkAllRead(_ context.Context, filter Filter, at time.Time) (int64, error) {
	m.lastScope = filter
	if m.failWith != nil {
		return 0, m.failWith
	}
	var n int64
	for i := range m.rows {
		if m.rows[i].ReadAt == nil {
			m.rows[i].ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (m *memoryInbox) DeleteReadBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func seededInbox(n int) *memoryInbox {
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	inbox := &memoryInbox{}
	for i := 0; i < n; i++ {
		typ := enums.NotificationTypeOrderCreated
		if i%2 == 1 {
			typ = enums.NotificationTypeContactMessage
		}
		inbox.rows = append(inbox.rows, models.Notification{ID: uuid.New(), Type: typ, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	return inbox
}

func newTestService(t *testing.T, repo Repository) *service {
	t.Helper()
	svc, err := NewService(repo)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return impl
}

func TestListWalksPagesWithCursor(t *testing.T) {
	inbox := seededInbox(3)
	svc := newTestService(t, inbox)
	ctx := context.Background()

	first, err := svc.List(ctx, ListParams{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, inbox.lastLimit, "asks for one extra row to detect the next page")
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.Cursor)
	assert.EqualValues(t, 3, first.UnreadCount)
	assert.EqualValues(t, 2, first.UnreadByType[enums.NotificationTypeOrderCreated])
	assert.EqualValues(t, 1, first.UnreadByType[enums.NotificationTypeContactMessage])

	cursor, err := pagination.ParseCursor(first.Cursor)
	require.NoError(t, err)
	assert.Equal(t, first.Items[1].ID, cursor.ID)

	second, err := svc.List(ctx, ListParams{Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.Cursor)
	assert.Equal(t, inbox.rows[0].ID, second.Items[0].ID)
}

func TestListEmptyInboxRendersEmptySlice(t *testing.T) {
	result, err := newTestService(t, &memoryInbox{}).List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.NotNil(t, result.Items)
	assert.Zero(t, result.UnreadCount)
}

func TestListRejectsBadInput(t *testing.T) {
	svc := newTestService(t, &memoryInbox{})

	_, err := svc.List(context.Background(), ListParams{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "cursor: %v", err)

	_, err = svc.List(context.Background(), ListParams{Types: []enums.NotificationType{"parcel_lost"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "type: %v", err)
}

func TestListForwardsFilter(t *testing.T) {
	inbox := &memoryInbox{}
	svc := newTestService(t, inbox)
	types := []enums.NotificationType{enums.NotificationTypeOrderStatus}

	_, err := svc.List(context.Background(), ListParams{UnreadOnly: true, Types: types})
	require.NoError(t, err)
	assert.Equal(t, Filter{UnreadOnly: true, Types: types}, inbox.lastScope)
}

func TestMarkReadKeepsFirstTimestamp(t *testing.T) {
	inbox := seededInbox(1)
	svc := newTestService(t, inbox)
	id := inbox.rows[0].ID

	row, err := svc.MarkRead(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, row.ReadAt)
	firstRead := *row.ReadAt

	svc.now = func() time.Time { return firstRead.Add(time.Hour) }
	row, err = svc.MarkRead(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, row.ReadAt.Equal(firstRead))
}

func TestMarkReadErrors(t *testing.T) {
	svc := newTestService(t, &memoryInbox{})

	_, err := svc.MarkRead(context.Background(), uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.MarkRead(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	svc.repo = &memoryInbox{failWith: errors.New("connection reset")}
	_, err = svc.MarkRead(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestMarkAllRead(t *testing.T) {
	inbox := seededInbox(3)
	svc := newTestService(t, inbox)

	count, err := svc.MarkAllRead(context.Background(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	_, err = svc.MarkAllRead(context.Background(), []enums.NotificationType{"bogus"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	svc.repo = &memoryInbox{failWith: errors.New("boom")}
	_, err = svc.MarkAllRead(context.Background(), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}
