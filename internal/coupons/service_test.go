package coupons

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
)

var now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func setupCouponDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.Exec(`
CREATE TABLE coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  value INTEGER NOT NULL,
  min_subtotal INTEGER,
  starts_at DATETIME,
  ends_at DATETIME,
  max_redemptions INTEGER,
  redemptions_count INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`).Error)
	return conn
}

func newCouponService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	conn := setupCouponDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo, conn
}

func intPtr(v int) *int           { return &v }
func i64Ptr(v int64) *int64       { return &v }
func tPtr(v time.Time) *time.Time { return &v }

func TestResolveNormalizesCode(t *testing.T) {
	svc, repo, _ := newCouponService(t)
	require.NoError(t, repo.Create(context.Background(), &models.Coupon{Code: "WELCOME10", Type: enums.CouponTypePercent, Value: 10, IsActive: true}))

	got, err := svc.Resolve(context.Background(), "  welcome10 ", now)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", got.Code)

	pc := ToPricing(got)
	assert.Equal(t, enums.CouponTypePercent, pc.Kind)
	assert.Equal(t, int64(10), pc.Value)
}

func TestResolveRejectsUnusableCoupons(t *testing.T) {
	svc, repo, _ := newCouponService(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Coupon{Code: "LATER", Type: enums.CouponTypeFixed, Value: 500, IsActive: true, StartsAt: tPtr(now.Add(time.Hour))}))
	require.NoError(t, repo.Create(ctx, &models.Coupon{Code: "OLD", Type: enums.CouponTypeFixed, Value: 500, IsActive: true, EndsAt: tPtr(now.Add(-time.Hour))}))
	require.NoError(t, repo.Create(ctx, &models.Coupon{Code: "USEDUP", Type: enums.CouponTypeFixed, Value: 500, IsActive: true, MaxRedemptions: intPtr(1), RedemptionsCount: 1}))
	off := &models.Coupon{Code: "OFF", Type: enums.CouponTypeFixed, Value: 500, IsActive: true}
	require.NoError(t, repo.Create(ctx, off))
	require.NoError(t, repo.SetActive(ctx, off.ID, false))

	for _, code := range []string{"LATER", "OLD", "USEDUP", "OFF", "MISSING", ""} {
		_, err := svc.Resolve(ctx, code, now)
		require.Error(t, err, code)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), code)
	}
}

func TestRedeemIncrementsAndStopsAtLimit(t *testing.T) {
	svc, repo, conn := newCouponService(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Coupon{Code: "ONCE", Type: enums.CouponTypeFixed, Value: 500, IsActive: true, MaxRedemptions: intPtr(1)}))

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		c, err := svc.Redeem(ctx, tx, "once", now)
		if err != nil {
			return err
		}
		assert.Equal(t, 1, c.RedemptionsCount)
		return nil
	}))

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Redeem(ctx, tx, "ONCE", now)
		return err
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	stored, err := repo.FindByCode(ctx, nil, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.RedemptionsCount)
}

func TestRedeemRollsBackWithTransaction(t *testing.T) {
	svc, repo, conn := newCouponService(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Coupon{Code: "ROLL", Type: enums.CouponTypeFixed, Value: 500, IsActive: true}))

	_ = conn.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Redeem(ctx, tx, "ROLL", now); err != nil {
			return err
		}
		return fmt.Errorf("order failed")
	})

	stored, err := repo.FindByCode(ctx, nil, "ROLL")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.RedemptionsCount)
}

func TestCreateValidatesAndRejectsDuplicates(t *testing.T) {
	svc, _, _ := newCouponService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Code: "save5", Type: "fixed", Value: 500, MinSubtotal: i64Ptr(2000)})
	require.NoError(t, err)
	assert.Equal(t, "SAVE5", created.Code)
	assert.Equal(t, enums.CouponTypeFixed, created.Type)
	assert.True(t, created.IsActive)

	_, err = svc.Create(ctx, CreateInput{Code: "SAVE5", Type: "FIXED", Value: 100})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, CreateInput{Code: "HUGE", Type: "PERCENT", Value: 150})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{Code: "BOGUS", Type: "bogo", Value: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{Code: "WINDOW", Type: "FIXED", Value: 1, StartsAt: tPtr(now), EndsAt: tPtr(now)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
