package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once an order and its items are committed.
type OrderCreatedEvent struct {
	OrderID         uuid.UUID             `json:"order_id"`
	OrderNumber     string                `json:"order_number"`
	UserID          *uuid.UUID            `json:"user_id,omitempty"`
	Email           string                `json:"email"`
	CustomerName    string                `json:"customer_name,omitempty"`
	Currency        string                `json:"currency"`
	Subtotal        int64                 `json:"subtotal"`
	DiscountTotal   int64                 `json:"discount_total"`
	ShippingTotal   int64                 `json:"shipping_total"`
	TaxTotal        int64                 `json:"tax_total"`
	GrandTotal      int64                 `json:"grand_total"`
	ItemCount       int                   `json:"item_count"`
	CouponCode      *string               `json:"coupon_code,omitempty"`
	PaymentProvider enums.PaymentProvider `json:"payment_provider"`
	ShippingMethod  enums.ShippingMethod  `json:"shipping_method"`
	CreatedAt       time.Time             `json:"created_at"`
}

// OrderStatusChangedEvent is emitted when an admin moves an order to a new status.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	UserID         *uuid.UUID        `json:"user_id,omitempty"`
	Email          string            `json:"email"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	GrandTotal     int64             `json:"grand_total"`
	Currency       string            `json:"currency"`
	ChangedBy      uuid.UUID         `json:"changed_by"`
	ChangedAt      time.Time         `json:"changed_at"`
}

// ContactSubmittedEvent carries a help center message to support.
type ContactSubmittedEvent struct {
	MessageID uuid.UUID `json:"message_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
