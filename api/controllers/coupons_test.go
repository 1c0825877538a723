package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/internal/coupons"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
)

type stubCouponService struct {
	created coupons.CreateInput
	rows    []models.Coupon
	err     error
}

func (s *stubCouponService) Resolve(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	return nil, nil
}

func (s *stubCouponService) ResolveTx(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Coupon, error) {
	return nil, nil
}

func (s *stubCouponService) Redeem(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Coupon, error) {
	return nil, nil
}

func (s *stubCouponService) Create(ctx context.Context, input coupons.CreateInput) (*models.Coupon, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	kind, _ := enums.ParseCouponType(input.Type)
	return &models.Coupon{ID: uuid.New(), Code: input.Code, Type: kind, Value: input.Value, IsActive: true}, nil
}

func (s *stubCouponService) List(ctx context.Context) ([]models.Coupon, error) {
	return s.rows, s.err
}

func TestAdminCouponCreate(t *testing.T) {
	svc := &stubCouponService{}
	body := `{"code":"SPRING15","type":"percent","value":15,"min_subtotal":5000}`
	resp := httptest.NewRecorder()

	AdminCouponCreate(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/coupons", strings.NewReader(body)))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created.MinSubtotal == nil || *svc.created.MinSubtotal != 5000 {
		t.Fatalf("unexpected input %+v", svc.created)
	}

	var payload struct {
		Data couponView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.Code != "SPRING15" || payload.Data.Type != enums.CouponTypePercent || !payload.Data.IsActive {
		t.Fatalf("unexpected coupon %+v", payload.Data)
	}
}

func TestAdminCouponCreateRejectsBadCode(t *testing.T) {
	svc := &stubCouponService{}
	resp := httptest.NewRecorder()

	AdminCouponCreate(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/coupons", strings.NewReader(`{"code":"no spaces!","type":"fixed","value":500}`)))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.created.Code != "" {
		t.Fatal("service should not be called")
	}
}

func TestAdminCouponCreateDuplicate(t *testing.T) {
	svc := &stubCouponService{err: pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")}
	resp := httptest.NewRecorder()

	AdminCouponCreate(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/coupons", strings.NewReader(`{"code":"SAVE10","type":"fixed","value":500}`)))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAdminCouponList(t *testing.T) {
	svc := &stubCouponService{rows: []models.Coupon{
		{ID: uuid.New(), Code: "SAVE10", Type: enums.CouponTypeFixed, Value: 1000, RedemptionsCount: 3},
	}}
	resp := httptest.NewRecorder()

	AdminCouponList(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/coupons", nil))

	var payload struct {
		Data struct {
			Items []couponView `json:"items"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Data.Items) != 1 || payload.Data.Items[0].RedemptionsCount != 3 {
		t.Fatalf("unexpected items %+v", payload.Data.Items)
	}
}
