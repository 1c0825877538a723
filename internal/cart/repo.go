package cart

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
)

// Repository persists carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Variant").
		Preload("Items.Variant.Inventory").
		Preload("Items.Variant.Product").
		Preload("Items.Variant.Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// FindByOwner loads the owner's cart with items, variants and inventory.
func (r *Repository) FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	q := r.withItems(ctx)
	if owner.UserID != nil {
		q = q.Where("user_id = ?", *owner.UserID)
	} else {
		q = q.Where("session_token = ? AND user_id IS NULL", strings.TrimSpace(owner.SessionToken))
	}
	var cart models.Cart
	if err := q.Order("created_at DESC").First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByID loads a cart with items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.withItems(ctx).Where("id = ?", id).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts an empty cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error
}

// FindVariant loads a variant with its product and inventory.
func (r *Repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Preload("Product").
		Where("id = ?", id).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// SaveItem inserts or updates a cart line.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Variant").Save(item).Error
}

// UpdateItemPrice refreshes a line's unit price and line total.
func (r *Repository) UpdateItemPrice(ctx context.Context, itemID uuid.UUID, unitPrice, lineTotal int64) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"unit_price": unitPrice, "line_total": lineTotal}).Error
}

// DeleteItem removes a variant line.
func (r *Repository) DeleteItem(ctx context.Context, cartID, variantID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND variant_id = ?", cartID, variantID).
		Delete(&models.CartItem{}).Error
}

// DeleteItems empties a cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// SaveTotals stores the coupon code and derived totals on the cart row.
func (r *Repository) SaveTotals(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"coupon_code":     cart.CouponCode,
			"subtotal":        cart.Subtotal,
			"discounts_total": cart.DiscountsTotal,
			"shipping_total":  cart.ShippingTotal,
			"tax_total":       cart.TaxTotal,
			"grand_total":     cart.GrandTotal,
		}).Error
}

// DeleteAbandonedBefore removes guest carts untouched since cutoff along with
// their items. Carts owned by a user are kept.
func (r *Repository) DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&models.Cart{}).Select("id").Where("user_id IS NULL AND updated_at < ?", cutoff)
		if err := tx.Where("cart_id IN (?)", stale).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id IS NULL AND updated_at < ?", cutoff).Delete(&models.Cart{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
