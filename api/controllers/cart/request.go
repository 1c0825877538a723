package cart

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/api/middleware"
	cartsvc "github.com/angelmondragon/gearhub-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
)

type addItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
}

type updateItemRequest struct {
	// Quantity zero or below removes the line.
	Quantity int `json:"quantity" validate:"max=99"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required,coupon"`
}

// OwnerFromRequest prefers an authenticated user and falls back to the cart token.
func OwnerFromRequest(r *http.Request) (cartsvc.Owner, error) {
	owner := cartsvc.Owner{SessionToken: middleware.CartTokenFromContext(r.Context())}
	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return cartsvc.Owner{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
		}
		owner.UserID = &id
	}
	if owner.UserID == nil && strings.TrimSpace(owner.SessionToken) == "" {
		return cartsvc.Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
	}
	return owner, nil
}

func variantIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "variantId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.FieldError("variantId", "variantId must be a uuid")
	}
	return id, nil
}
