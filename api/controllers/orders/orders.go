// Package orders exposes checkout, the customer order lookup and the admin
// order screens.
package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	cartcontrollers "github.com/angelmondragon/gearhub-backend/api/controllers/cart"
	"github.com/angelmondragon/gearhub-backend/api/middleware"
	"github.com/angelmondragon/gearhub-backend/api/responses"
	"github.com/angelmondragon/gearhub-backend/api/validators"
	ordersvc "github.com/angelmondragon/gearhub-backend/internal/orders"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/pagination"
)

const maxOrderSearchLen = 100

// Checkout places an order for the caller's cart.
func Checkout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		owner, err := cartcontrollers.OwnerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		provider, err := enums.ParsePaymentProvider(body.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.FieldError("payment_method", err.Error()))
			return
		}
		shipping, err := enums.ParseShippingMethod(body.ShippingMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.FieldError("shipping_method", err.Error()))
			return
		}

		result, err := svc.CreateFromCart(r.Context(), ordersvc.CheckoutInput{
			Owner:           owner,
			Email:           body.Email,
			PaymentProvider: provider,
			ShippingMethod:  shipping,
			ShippingAddress: body.ShippingAddress,
			BillingAddress:  body.BillingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil && result.Order != nil {
			logg.Info(logg.WithOrderNumber(r.Context(), result.Order.OrderNumber), "checkout.order_created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Lookup serves the confirmation page. The optional email must match the order.
func Lookup(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		view, err := svc.GetByNumber(r.Context(), chi.URLParam(r, "orderNumber"), r.URL.Query().Get("email"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func AdminList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perPage, err := validators.ParseQueryInt(r, "per_page", ordersvc.AdminPerPage, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), ordersvc.ListInput{
			Status: r.URL.Query().Get("status"),
			Query:  validators.SearchTerm(r.URL.Query().Get("q"), maxOrderSearchLen),
			Page:   pagination.Page{Page: page, PerPage: perPage},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminUpdateStatus moves an order to a new status on behalf of the signed-in admin.
func AdminUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing"))
			return
		}

		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateStatus(r.Context(), ordersvc.UpdateStatusInput{
			OrderID:     orderID,
			Status:      body.Status,
			ActorUserID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func orderIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		return uuid.Nil, pkgerrors.FieldError("id", "order id must be a uuid")
	}
	return id, nil
}
