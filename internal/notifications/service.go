package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/pagination"
)

// Service is the admin notification inbox.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, types []enums.NotificationType) (int64, error)
}

type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
	Types      []enums.NotificationType
}

// ListResult is one inbox page. The unread counters always cover the whole
// inbox, not just the filtered page.
type ListResult struct {
	Items        []models.Notification            `json:"items"`
	Cursor       string                           `json:"cursor"`
	UnreadCount  int64                            `json:"unread_count"`
	UnreadByType map[enums.NotificationType]int64 `json:"unread_by_type"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	after, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if err := validateTypes(params.Types); err != nil {
		return nil, err
	}

	size := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.Page(ctx, Filter{UnreadOnly: params.UnreadOnly, Types: params.Types}, after, size+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	result := &ListResult{Items: rows}
	if len(rows) > size {
		result.Items = rows[:size]
		last := result.Items[size-1]
		result.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	if result.Items == nil {
		result.Items = []models.Notification{}
	}

	result.UnreadByType, err = s.repo.UnreadCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	for _, n := range result.UnreadByType {
		result.UnreadCount += n
	}
	return result, nil
}

// MarkRead is idempotent: a notification that is already read keeps its
// original read_at.
func (s *service) MarkRead(ctx context.Context, notificationID uuid.UUID) (*models.Notification, error) {
	if notificationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	row, err := s.repo.MarkRead(ctx, notificationID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return row, nil
}

func (s *service) MarkAllRead(ctx context.Context, types []enums.NotificationType) (int64, error) {
	if err := validateTypes(types); err != nil {
		return 0, err
	}
	count, err := s.repo.MarkAllRead(ctx, Filter{Types: types}, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func validateTypes(types []enums.NotificationType) error {
	for _, t := range types {
		if !t.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown notification type").
				WithDetails(map[string]any{"type": t})
		}
	}
	return nil
}
