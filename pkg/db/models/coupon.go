package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/enums"
)

// Coupon is a discount rule identified by an upper-cased code.
type Coupon struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code             string           `gorm:"column:code;not null;uniqueIndex:ux_coupons_code"`
	Type             enums.CouponType `gorm:"column:type;type:coupon_type;not null"`
	Value            int64            `gorm:"column:value;not null"`
	MinSubtotal      *int64           `gorm:"column:min_subtotal"`
	StartsAt         *time.Time       `gorm:"column:starts_at"`
	EndsAt           *time.Time       `gorm:"column:ends_at"`
	MaxRedemptions   *int             `gorm:"column:max_redemptions"`
	RedemptionsCount int              `gorm:"column:redemptions_count;not null;default:0"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
