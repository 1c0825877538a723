// Package coupons resolves and redeems discount codes.
package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/internal/pricing"
	"github.com/angelmondragon/gearhub-backend/pkg/db"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
)

const fieldCode = "coupon_code"

// Service exposes coupon lookups for carts and checkout plus admin management.
type Service interface {
	Resolve(ctx context.Context, code string, now time.Time) (*models.Coupon, error)
	ResolveTx(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Coupon, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Coupon, error)
	Create(ctx context.Context, input CreateInput) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
}

type repository interface {
	FindByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Coupon, error)
	LockByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Coupon, error)
	IncrementRedemptions(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Create(ctx context.Context, coupon *models.Coupon) error
	List(ctx context.Context) ([]models.Coupon, error)
}

// CreateInput is the admin payload for a new coupon.
type CreateInput struct {
	Code           string     `json:"code" validate:"required,coupon"`
	Type           string     `json:"type" validate:"required,oneof=PERCENT FIXED percent fixed"`
	Value          int64      `json:"value" validate:"gte=0"`
	MinSubtotal    *int64     `json:"min_subtotal,omitempty" validate:"omitempty,gte=0"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
	MaxRedemptions *int       `json:"max_redemptions,omitempty" validate:"omitempty,gt=0"`
}

type service struct {
	repo repository
}

// NewService builds the coupon service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("coupon repository required")
	}
	return &service{repo: repo}, nil
}

// NormalizeCode trims and upper-cases a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Resolve(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	return s.ResolveTx(ctx, nil, code, now)
}

// ResolveTx is Resolve reading through tx, for callers already inside a transaction.
func (s *service) ResolveTx(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Coupon, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, pkgerrors.FieldError(fieldCode, "coupon code is required")
	}
	coupon, err := s.repo.FindByCode(ctx, tx, code)
	if err != nil {
		return nil, lookupError(err)
	}
	if err := checkUsable(coupon, now); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Redeem locks the coupon, re-checks it and increments its redemption count.
// It must run inside the order transaction.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Coupon, error) {
	if tx == nil {
		return nil, errors.New("redeem requires a transaction")
	}
	coupon, err := s.repo.LockByCode(ctx, tx, NormalizeCode(code))
	if err != nil {
		return nil, lookupError(err)
	}
	if err := checkUsable(coupon, now); err != nil {
		if exhausted(coupon) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon redemption limit reached")
		}
		return nil, err
	}
	if err := s.repo.IncrementRedemptions(ctx, tx, coupon.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeem coupon")
	}
	coupon.RedemptionsCount++
	return coupon, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Coupon, error) {
	kind, err := enums.ParseCouponType(input.Type)
	if err != nil {
		return nil, pkgerrors.FieldError("type", err.Error())
	}
	coupon := &models.Coupon{
		Code:           NormalizeCode(input.Code),
		Type:           kind,
		Value:          input.Value,
		MinSubtotal:    input.MinSubtotal,
		StartsAt:       input.StartsAt,
		EndsAt:         input.EndsAt,
		MaxRedemptions: input.MaxRedemptions,
		IsActive:       true,
	}
	if coupon.Code == "" {
		return nil, pkgerrors.FieldError("code", "code is required")
	}
	if err := ToPricing(coupon).Validate(); err != nil {
		msg := err.Error()
		if typed := pkgerrors.As(err); typed != nil {
			msg = typed.Message()
		}
		return nil, pkgerrors.FieldError("value", msg)
	}
	if coupon.StartsAt != nil && coupon.EndsAt != nil && !coupon.EndsAt.After(*coupon.StartsAt) {
		return nil, pkgerrors.FieldError("ends_at", "ends_at must be after starts_at")
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create coupon")
	}
	return coupon, nil
}

func (s *service) List(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list coupons")
	}
	return coupons, nil
}

// ToPricing converts a stored coupon into the calculator's definition.
func ToPricing(c *models.Coupon) *pricing.Coupon {
	if c == nil {
		return nil
	}
	return &pricing.Coupon{
		Code:        c.Code,
		Kind:        c.Type,
		Value:       c.Value,
		MinSubtotal: c.MinSubtotal,
	}
}

func checkUsable(c *models.Coupon, now time.Time) error {
	switch {
	case !c.IsActive:
		return pkgerrors.FieldError(fieldCode, "coupon is not active")
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return pkgerrors.FieldError(fieldCode, "coupon is not active yet")
	case c.EndsAt != nil && !now.Before(*c.EndsAt):
		return pkgerrors.FieldError(fieldCode, "coupon has expired")
	case exhausted(c):
		return pkgerrors.FieldError(fieldCode, "coupon has reached its redemption limit")
	}
	return nil
}

func exhausted(c *models.Coupon) bool {
	return c.MaxRedemptions != nil && c.RedemptionsCount >= *c.MaxRedemptions
}

func lookupError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.FieldError(fieldCode, "coupon not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupon")
}
