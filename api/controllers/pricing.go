package controllers

import (
	"net/http"

	"github.com/angelmondragon/gearhub-backend/api/responses"
	"github.com/angelmondragon/gearhub-backend/api/validators"
	"github.com/angelmondragon/gearhub-backend/internal/pricing"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

type quoteLine struct {
	ProductRef string `json:"product_ref" validate:"max=100"`
	UnitPrice  int64  `json:"unit_price" validate:"gte=0"`
	Quantity   int    `json:"quantity" validate:"gte=0"`
}

type quoteCoupon struct {
	Code        string `json:"code" validate:"required,coupon"`
	Type        string `json:"type" validate:"required"`
	Value       int64  `json:"value"`
	MinSubtotal *int64 `json:"min_subtotal,omitempty"`
}

type quoteRequest struct {
	Items          []quoteLine  `json:"items" validate:"max=100,dive"`
	Coupon         *quoteCoupon `json:"coupon,omitempty"`
	ShippingMethod string       `json:"shipping_method,omitempty"`
}

// PricingQuote prices a set of lines without touching any stored cart.
func PricingQuote(calc *pricing.Calculator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing unavailable"))
			return
		}

		var body quoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParseShippingMethod(body.ShippingMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.FieldError("shipping_method", err.Error()))
			return
		}

		lines := make([]pricing.LineItem, 0, len(body.Items))
		for _, item := range body.Items {
			lines = append(lines, pricing.LineItem{ProductRef: item.ProductRef, UnitPrice: item.UnitPrice, Quantity: item.Quantity})
		}

		var coupon *pricing.Coupon
		if body.Coupon != nil {
			kind, err := enums.ParseCouponType(body.Coupon.Type)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.FieldError("coupon.type", err.Error()))
				return
			}
			coupon = &pricing.Coupon{
				Code:        body.Coupon.Code,
				Kind:        kind,
				Value:       body.Coupon.Value,
				MinSubtotal: body.Coupon.MinSubtotal,
			}
		}

		result, err := calc.Quote(lines, coupon, pricing.Options{ShippingMethod: method})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
