// Package cart exposes the server-side cart over HTTP. Every handler responds
// with the recomputed cart view.
package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/api/responses"
	"github.com/angelmondragon/gearhub-backend/api/validators"
	cartsvc "github.com/angelmondragon/gearhub-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

type cartAction func(r *http.Request, owner cartsvc.Owner) (*cartsvc.View, error)

// handle resolves the cart owner, runs the action and writes the cart view.
func handle(svc cartsvc.Service, logg *logger.Logger, action cartAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		owner, err := OwnerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := action(r, owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartFetch returns the caller's cart, creating an empty one on first use.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.View, error) {
		return svc.Get(r.Context(), owner)
	})
}

func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.View, error) {
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		variantID, err := uuid.Parse(body.VariantID)
		if err != nil {
			return nil, pkgerrors.FieldError("variant_id", "variant_id must be a uuid")
		}
		return svc.AddItem(r.Context(), owner, variantID, body.Quantity)
	})
}

func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.View, error) {
		variantID, err := variantIDParam(r)
		if err != nil {
			return nil, err
		}
		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.UpdateItem(r.Context(), owner, variantID, body.Quantity)
	})
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.View, error) {
		variantID, err := variantIDParam(r)
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), owner, variantID)
	})
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.View, error) {
		return svc.Clear(r.Context(), owner)
	})
}

func CartApplyCoupon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.View, error) {
		var body applyCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.ApplyCoupon(r.Context(), owner, body.Code)
	})
}

func CartRemoveCoupon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.View, error) {
		return svc.RemoveCoupon(r.Context(), owner)
	})
}
