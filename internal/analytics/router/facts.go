package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/gearhub-backend/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/gearhub-backend/internal/analytics/writer"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/payloads"
)

// factHandler appends one order fact per event of payload type T.
type factHandler[T any] struct {
	writer Writer
	logg   *logger.Logger
	now    func() time.Time
	build  func(d outbox.Delivery, event *T, now time.Time) types.OrderFactRow
}

func (h factHandler[T]) Handle(ctx context.Context, d outbox.Delivery, payload any) error {
	event, ok := payload.(*T)
	if !ok {
		return fmt.Errorf("%w: %s decoded to %T", ErrMalformedPayload, d.EventType, payload)
	}

	row := h.build(d, event, h.now())
	raw, err := analyticswriter.EncodeJSON(d.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	row.EventID = d.EventID.String()
	row.EventType = string(d.EventType)
	row.Payload = raw

	ctx = h.logg.WithOrderNumber(h.logg.WithFields(ctx, map[string]any{
		"order_id": row.OrderID,
		"status":   row.Status,
	}), row.OrderNumber)
	if err := h.writer.InsertOrderFact(ctx, row); err != nil {
		h.logg.Error(ctx, "order fact insert failed", err)
		return err
	}
	h.logg.Debug(ctx, "order fact appended")
	return nil
}

func orderCreatedFact(d outbox.Delivery, e *payloads.OrderCreatedEvent, now time.Time) types.OrderFactRow {
	return types.OrderFactRow{
		OccurredAt:      factTime(now, e.CreatedAt, d.OccurredAt),
		OrderID:         e.OrderID.String(),
		OrderNumber:     e.OrderNumber,
		CustomerType:    customerType(e.UserID != nil),
		Status:          string(enums.OrderStatusPending),
		Currency:        e.Currency,
		SubtotalCents:   cbigquery.NullInt64{Int64: e.Subtotal, Valid: true},
		DiscountCents:   cbigquery.NullInt64{Int64: e.DiscountTotal, Valid: true},
		ShippingCents:   cbigquery.NullInt64{Int64: e.ShippingTotal, Valid: true},
		TaxCents:        cbigquery.NullInt64{Int64: e.TaxTotal, Valid: true},
		GrandTotalCents: e.GrandTotal,
		ItemCount:       cbigquery.NullInt64{Int64: int64(e.ItemCount), Valid: true},
		CouponCode:      nullString(e.CouponCode),
		PaymentProvider: nullString(ptr(string(e.PaymentProvider))),
		ShippingMethod:  nullString(ptr(string(e.ShippingMethod))),
	}
}

// orderStatusFact carries only the grand total; revenue restatements for
// cancellations and refunds key off it.
func orderStatusFact(d outbox.Delivery, e *payloads.OrderStatusChangedEvent, now time.Time) types.OrderFactRow {
	return types.OrderFactRow{
		OccurredAt:      factTime(now, e.ChangedAt, d.OccurredAt),
		OrderID:         e.OrderID.String(),
		OrderNumber:     e.OrderNumber,
		CustomerType:    customerType(e.UserID != nil),
		Status:          string(e.Status),
		PreviousStatus:  nullString(ptr(string(e.PreviousStatus))),
		Currency:        e.Currency,
		GrandTotalCents: e.GrandTotal,
	}
}

// factTime prefers the business time in the payload, then the envelope time.
func factTime(fallback time.Time, candidates ...time.Time) time.Time {
	for _, t := range candidates {
		if !t.IsZero() {
			return t.UTC()
		}
	}
	return fallback.UTC()
}

func customerType(registered bool) string {
	if registered {
		return types.CustomerRegistered
	}
	return types.CustomerGuest
}

func ptr[T any](v T) *T { return &v }

// nullString keeps blank and missing values as NULL.
func nullString(s *string) cbigquery.NullString {
	if s == nil {
		return cbigquery.NullString{}
	}
	trimmed := strings.TrimSpace(*s)
	return cbigquery.NullString{StringVal: trimmed, Valid: trimmed != ""}
}
