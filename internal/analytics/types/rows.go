package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderFactRow mirrors the order_facts BigQuery schema. One row is appended
// per order event. Nullable columns use the NullXXX types so the schema can be
// inferred from the struct. Status rows carry the grand total so revenue can be
// restated for cancellations and refunds.
type OrderFactRow struct {
	EventID         string               `bigquery:"event_id"`
	EventType       string               `bigquery:"event_type"`
	OccurredAt      time.Time            `bigquery:"occurred_at"`
	OrderID         string               `bigquery:"order_id"`
	OrderNumber     string               `bigquery:"order_number"`
	CustomerType    string               `bigquery:"customer_type"`
	Status          string               `bigquery:"status"`
	PreviousStatus  cbigquery.NullString `bigquery:"previous_status"`
	Currency        string               `bigquery:"currency"`
	SubtotalCents   cbigquery.NullInt64  `bigquery:"subtotal_cents"`
	DiscountCents   cbigquery.NullInt64  `bigquery:"discount_cents"`
	ShippingCents   cbigquery.NullInt64  `bigquery:"shipping_cents"`
	TaxCents        cbigquery.NullInt64  `bigquery:"tax_cents"`
	GrandTotalCents int64                `bigquery:"grand_total_cents"`
	ItemCount       cbigquery.NullInt64  `bigquery:"item_count"`
	CouponCode      cbigquery.NullString `bigquery:"coupon_code"`
	PaymentProvider cbigquery.NullString `bigquery:"payment_provider"`
	ShippingMethod  cbigquery.NullString `bigquery:"shipping_method"`
	Payload         cbigquery.NullJSON   `bigquery:"payload"`
}

const (
	CustomerGuest      = "guest"
	CustomerRegistered = "registered"
)
