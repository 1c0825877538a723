package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the server side cart. Totals are derived by the pricing calculator
// and persisted only as a cache of the last computation.
type Cart struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         *uuid.UUID `gorm:"column:user_id;type:uuid"`
	SessionToken   *string    `gorm:"column:session_token"`
	Currency       string     `gorm:"column:currency;not null;default:'USD'"`
	CouponCode     *string    `gorm:"column:coupon_code"`
	Subtotal       int64      `gorm:"column:subtotal;not null;default:0"`
	DiscountsTotal int64      `gorm:"column:discounts_total;not null;default:0"`
	ShippingTotal  int64      `gorm:"column:shipping_total;not null;default:0"`
	TaxTotal       int64      `gorm:"column:tax_total;not null;default:0"`
	GrandTotal     int64      `gorm:"column:grand_total;not null;default:0"`
	Items          []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CartItem is one variant line in a cart.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Variant   *Variant  `gorm:"foreignKey:VariantID"`
	Quantity  int       `gorm:"column:quantity;not null"`
	UnitPrice int64     `gorm:"column:unit_price;not null"`
	LineTotal int64     `gorm:"column:line_total;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
