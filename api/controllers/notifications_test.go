package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/internal/notifications"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

type testNotificationsService struct {
	markReadFn    func(ctx context.Context, notificationID uuid.UUID) (*models.Notification, error)
	markAllTypes  []enums.NotificationType
	markAllResult int64
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, notificationID uuid.UUID) (*models.Notification, error) {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, notificationID)
	}
	return &models.Notification{ID: notificationID}, nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, types []enums.NotificationType) (int64, error) {
	s.markAllTypes = types
	return s.markAllResult, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	notificationID := uuid.New()
	readAt := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, nid uuid.UUID) (*models.Notification, error) {
			if nid != notificationID {
				t.Fatalf("unexpected notification %s", nid)
			}
			return &models.Notification{ID: nid, Type: enums.NotificationTypeOrderCreated, ReadAt: &readAt}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/notifications/"+notificationID.String()+"/read", nil)
	req = addRouteParam(req, "notificationId", notificationID.String())

	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			ID     uuid.UUID  `json:"id"`
			ReadAt *time.Time `json:"read_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.ID != notificationID || envelope.Data.ReadAt == nil || !envelope.Data.ReadAt.Equal(readAt) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/notifications/invalid/read", nil)
	req = addRouteParam(req, "notificationId", "invalid")
	resp := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, nid uuid.UUID) (*models.Notification, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		},
	}
	id := uuid.NewString()
	req := addRouteParam(httptest.NewRequest(http.MethodPost, "/api/admin/notifications/"+id+"/read", nil), "notificationId", id)
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestMarkAllNotificationsReadSuccess(t *testing.T) {
	svc := &testNotificationsService{markAllResult: 5}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/notifications/read-all?type=CONTACT_MESSAGE", nil)
	resp := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string]float64 `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["updated"] != 5 {
		t.Fatalf("expected updated=5 got %v", envelope.Data["updated"])
	}
	if len(svc.markAllTypes) != 1 || svc.markAllTypes[0] != enums.NotificationTypeContactMessage {
		t.Fatalf("expected lower-cased type filter, got %v", svc.markAllTypes)
	}
}

func TestListNotificationsParsesQuery(t *testing.T) {
	var got notifications.ListParams
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			got = params
			return &notifications.ListResult{UnreadCount: 3}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/notifications?limit=10&unreadOnly=true&cursor=abc&type=order_created,order_status", nil)
	resp := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if got.Limit != 10 || !got.UnreadOnly || got.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", got)
	}
	if len(got.Types) != 2 || got.Types[1] != enums.NotificationTypeOrderStatus {
		t.Fatalf("unexpected type filter %v", got.Types)
	}
}

func TestListNotificationsRejectsBadLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/notifications?limit=0", nil)
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}
