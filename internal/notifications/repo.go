package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/pagination"
)

// Filter narrows which notifications a query touches. The zero value matches
// everything.
type Filter struct {
	UnreadOnly bool
	Types      []enums.NotificationType
}

func (f Filter) scope(db *gorm.DB) *gorm.DB {
	if f.UnreadOnly {
		db = db.Where("read_at IS NULL")
	}
	if len(f.Types) > 0 {
		db = db.Where("type IN ?", f.Types)
	}
	return db
}

// Repository persists admin notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	// Page returns up to limit rows older than after, newest first.
	Page(ctx context.Context, filter Filter, after *pagination.Cursor, limit int) ([]models.Notification, error)
	UnreadCounts(ctx context.Context) (map[enums.NotificationType]int64, error)
	// MarkRead stamps readAt once and returns the row, or nil when the id is unknown.
	MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) (*models.Notification, error)
	MarkAllRead(ctx context.Context, filter Filter, readAt time.Time) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{})
}

func (r *gormRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *gormRepository) Page(ctx context.Context, filter Filter, after *pagination.Cursor, limit int) ([]models.Notification, error) {
	q := r.table(ctx).Scopes(filter.scope)
	if after != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}
	var rows []models.Notification
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *gormRepository) UnreadCounts(ctx context.Context) (map[enums.NotificationType]int64, error) {
	var grouped []struct {
		Type  enums.NotificationType
		Total int64
	}
	err := r.table(ctx).
		Select("type, COUNT(*) AS total").
		Where("read_at IS NULL").
		Group("type").
		Scan(&grouped).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.NotificationType]int64, len(grouped))
	for _, g := range grouped {
		counts[g.Type] = g.Total
	}
	return counts, nil
}

func (r *gormRepository) MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) (*models.Notification, error) {
	if err := r.table(ctx).Where("id = ? AND read_at IS NULL", id).UpdateColumn("read_at", readAt).Error; err != nil {
		return nil, err
	}
	var row models.Notification
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *gormRepository) MarkAllRead(ctx context.Context, filter Filter, readAt time.Time) (int64, error) {
	filter.UnreadOnly = true
	res := r.table(ctx).Scopes(filter.scope).UpdateColumn("read_at", readAt)
	return res.RowsAffected, res.Error
}

// DeleteReadBefore purges notifications read before cutoff.
func (r *gormRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
