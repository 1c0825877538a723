package coupons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
)

// Repository persists coupons.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByCode loads a coupon by its normalized code, through tx when provided.
func (r *Repository) FindByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Coupon, error) {
	q := r.db.WithContext(ctx)
	if tx != nil {
		q = tx.WithContext(ctx)
	}
	var coupon models.Coupon
	if err := q.Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// LockByCode loads a coupon inside tx, holding a row lock on Postgres until commit.
func (r *Repository) LockByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Coupon, error) {
	q := tx.WithContext(ctx).Where("code = ?", code)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var coupon models.Coupon
	if err := q.First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// IncrementRedemptions bumps the redemption counter inside tx.
func (r *Repository) IncrementRedemptions(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return tx.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", id).
		UpdateColumn("redemptions_count", gorm.Expr("redemptions_count + 1")).Error
}

// Create inserts a coupon.
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// SetActive toggles the active flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&models.Coupon{}).Where("id = ?", id).Update("is_active", active).Error
}

// List returns coupons newest first.
func (r *Repository) List(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error
	return coupons, err
}
