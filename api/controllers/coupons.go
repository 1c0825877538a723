package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/gearhub-backend/api/responses"
	"github.com/angelmondragon/gearhub-backend/api/validators"
	"github.com/angelmondragon/gearhub-backend/internal/coupons"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

type couponView struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	Type             enums.CouponType `json:"type"`
	Value            int64            `json:"value"`
	MinSubtotal      *int64           `json:"min_subtotal,omitempty"`
	StartsAt         *time.Time       `json:"starts_at,omitempty"`
	EndsAt           *time.Time       `json:"ends_at,omitempty"`
	MaxRedemptions   *int             `json:"max_redemptions,omitempty"`
	RedemptionsCount int              `json:"redemptions_count"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
}

func newCouponView(c *models.Coupon) couponView {
	return couponView{
		ID:               c.ID.String(),
		Code:             c.Code,
		Type:             c.Type,
		Value:            c.Value,
		MinSubtotal:      c.MinSubtotal,
		StartsAt:         c.StartsAt,
		EndsAt:           c.EndsAt,
		MaxRedemptions:   c.MaxRedemptions,
		RedemptionsCount: c.RedemptionsCount,
		IsActive:         c.IsActive,
		CreatedAt:        c.CreatedAt,
	}
}

func AdminCouponList(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]couponView, 0, len(rows))
		for i := range rows {
			items = append(items, newCouponView(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

func AdminCouponCreate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}
		var body coupons.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCouponView(created))
	}
}
