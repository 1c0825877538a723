package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/pagination"
	"github.com/angelmondragon/gearhub-backend/pkg/types"
)

// Totals are the frozen money fields of an order, in minor units.
type Totals struct {
	Subtotal      int64 `json:"subtotal"`
	DiscountTotal int64 `json:"discount_total"`
	ShippingTotal int64 `json:"shipping_total"`
	TaxTotal      int64 `json:"tax_total"`
	GrandTotal    int64 `json:"grand_total"`
}

// ItemView is one order line as sold.
type ItemView struct {
	VariantID uuid.UUID          `json:"variant_id"`
	Quantity  int                `json:"quantity"`
	UnitPrice int64              `json:"unit_price"`
	LineTotal int64              `json:"line_total"`
	Snapshot  types.ItemSnapshot `json:"snapshot"`
}

// View is the customer and admin representation of an order.
type View struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"order_number"`
	Email           string                `json:"email"`
	Status          enums.OrderStatus     `json:"status"`
	StatusLabel     string                `json:"status_label"`
	PaymentStatus   enums.PaymentStatus   `json:"payment_status"`
	PaymentProvider enums.PaymentProvider `json:"payment_provider"`
	ShippingMethod  enums.ShippingMethod  `json:"shipping_method"`
	Currency        string                `json:"currency"`
	CouponCode      *string               `json:"coupon_code,omitempty"`
	Totals          Totals                `json:"totals"`
	ShippingAddress types.Address         `json:"shipping_address"`
	BillingAddress  types.Address         `json:"billing_address"`
	Items           []ItemView            `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Summary is a row of the admin order list.
type Summary struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"order_number"`
	Email           string                `json:"email"`
	CustomerName    string                `json:"customer_name"`
	Status          enums.OrderStatus     `json:"status"`
	PaymentStatus   enums.PaymentStatus   `json:"payment_status"`
	PaymentProvider enums.PaymentProvider `json:"payment_provider"`
	ItemCount       int                   `json:"item_count"`
	GrandTotal      int64                 `json:"grand_total"`
	Currency        string                `json:"currency"`
	CreatedAt       time.Time             `json:"created_at"`
}

// ListResult is a page of order summaries.
type ListResult struct {
	Items      []Summary           `json:"items"`
	Pagination pagination.PageMeta `json:"pagination"`
}

// CheckoutResult is returned after a successful checkout.
type CheckoutResult struct {
	Order        *View   `json:"order"`
	ClientSecret *string `json:"client_secret,omitempty"`
}

func newView(o *models.Order) *View {
	view := &View{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Email:           o.Email,
		Status:          o.Status,
		StatusLabel:     o.Status.Label(),
		PaymentStatus:   o.PaymentStatus,
		PaymentProvider: o.PaymentProvider,
		ShippingMethod:  o.ShippingMethod,
		Currency:        o.Currency,
		CouponCode:      o.CouponCode,
		Totals: Totals{
			Subtotal:      o.Subtotal,
			DiscountTotal: o.DiscountsTotal,
			ShippingTotal: o.ShippingTotal,
			TaxTotal:      o.TaxTotal,
			GrandTotal:    o.GrandTotal,
		},
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Items:           make([]ItemView, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		view.Items = append(view.Items, ItemView{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
			Snapshot:  item.Snapshot,
		})
	}
	return view
}

func newSummary(o *models.Order) Summary {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return Summary{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Email:           o.Email,
		CustomerName:    o.ShippingAddress.FullName,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		PaymentProvider: o.PaymentProvider,
		ItemCount:       count,
		GrandTotal:      o.GrandTotal,
		Currency:        o.Currency,
		CreatedAt:       o.CreatedAt,
	}
}
