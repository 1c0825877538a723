package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/types"
)

// Order is an immutable-total purchase. OrderNumber is the public reference.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string                `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	Email           string                `gorm:"column:email;not null"`
	Status          enums.OrderStatus     `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	PaymentStatus   enums.PaymentStatus   `gorm:"column:payment_status;type:payment_status;not null"`
	PaymentProvider enums.PaymentProvider `gorm:"column:payment_provider;type:payment_provider;not null"`
	ShippingMethod  enums.ShippingMethod  `gorm:"column:shipping_method;not null;default:'standard'"`
	Currency        string                `gorm:"column:currency;not null"`
	CouponCode      *string               `gorm:"column:coupon_code"`
	Subtotal        int64                 `gorm:"column:subtotal;not null"`
	DiscountsTotal  int64                 `gorm:"column:discounts_total;not null"`
	ShippingTotal   int64                 `gorm:"column:shipping_total;not null"`
	TaxTotal        int64                 `gorm:"column:tax_total;not null"`
	GrandTotal      int64                 `gorm:"column:grand_total;not null"`
	ShippingAddress types.Address         `gorm:"column:shipping_address;type:jsonb;not null"`
	BillingAddress  types.Address         `gorm:"column:billing_address;type:jsonb;not null"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *Payment              `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem carries a snapshot of the product as sold.
type OrderItem struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	VariantID uuid.UUID          `gorm:"column:variant_id;type:uuid;not null"`
	Quantity  int                `gorm:"column:quantity;not null"`
	UnitPrice int64              `gorm:"column:unit_price;not null"`
	LineTotal int64              `gorm:"column:line_total;not null"`
	Snapshot  types.ItemSnapshot `gorm:"column:snapshot;type:jsonb;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Payment records how an order is being paid.
type Payment struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_payments_order_id"`
	Provider    enums.PaymentProvider     `gorm:"column:provider;type:payment_provider;not null"`
	Amount      int64                     `gorm:"column:amount;not null"`
	Currency    string                    `gorm:"column:currency;not null"`
	Status      enums.PaymentRecordStatus `gorm:"column:status;not null"`
	ProviderRef *string                   `gorm:"column:provider_ref"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// OrderSequence is the per-day counter row behind order numbers.
type OrderSequence struct {
	DayKey    string    `gorm:"column:day_key;primaryKey"`
	LastSeq   int       `gorm:"column:last_seq;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AuditLog records admin mutations.
type AuditLog struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorUserID uuid.UUID       `gorm:"column:actor_user_id;type:uuid;not null"`
	Action      string          `gorm:"column:action;not null"`
	EntityType  string          `gorm:"column:entity_type;not null"`
	EntityID    uuid.UUID       `gorm:"column:entity_id;type:uuid;not null"`
	Diff        json.RawMessage `gorm:"column:diff;type:jsonb"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
