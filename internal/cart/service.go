// Package cart keeps the server-authoritative cart. Prices are re-read from
// variants and totals recomputed by the pricing calculator on every change.
package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/internal/coupons"
	"github.com/angelmondragon/gearhub-backend/internal/pricing"
	"github.com/angelmondragon/gearhub-backend/pkg/db"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
)

// MaxLineQuantity caps the units of one variant in a cart.
const MaxLineQuantity = 99

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type couponResolver interface {
	ResolveTx(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Coupon, error)
}

// Owner identifies a cart by signed-in user or anonymous session token.
type Owner struct {
	UserID       *uuid.UUID
	SessionToken string
}

func (o Owner) validate() error {
	if o.UserID == nil && strings.TrimSpace(o.SessionToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token or user is required")
	}
	return nil
}

// Service exposes cart mutations. Every call returns the recomputed cart.
type Service interface {
	Get(ctx context.Context, owner Owner) (*View, error)
	AddItem(ctx context.Context, owner Owner, variantID uuid.UUID, qty int) (*View, error)
	UpdateItem(ctx context.Context, owner Owner, variantID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, owner Owner, variantID uuid.UUID) (*View, error)
	Clear(ctx context.Context, owner Owner) (*View, error)
	ApplyCoupon(ctx context.Context, owner Owner, code string) (*View, error)
	RemoveCoupon(ctx context.Context, owner Owner) (*View, error)
}

type service struct {
	repo       *Repository
	tx         txRunner
	calculator *pricing.Calculator
	coupons    couponResolver
	currency   string
	now        func() time.Time
}

// NewService builds a cart service.
func NewService(repo *Repository, tx txRunner, calculator *pricing.Calculator, couponSvc couponResolver, currency string) (Service, error) {
	if repo == nil {
		return nil, errors.New("cart repository required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if calculator == nil {
		return nil, errors.New("pricing calculator required")
	}
	if couponSvc == nil {
		return nil, errors.New("coupon resolver required")
	}
	if strings.TrimSpace(currency) == "" {
		currency = "USD"
	}
	return &service{
		repo:       repo,
		tx:         tx,
		calculator: calculator,
		coupons:    couponSvc,
		currency:   strings.ToUpper(currency),
		now:        time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, owner Owner) (*View, error) {
	return s.mutate(ctx, owner, nil)
}

func (s *service) AddItem(ctx context.Context, owner Owner, variantID uuid.UUID, qty int) (*View, error) {
	if qty <= 0 {
		return nil, pkgerrors.FieldError("quantity", "quantity must be positive")
	}
	return s.mutate(ctx, owner, func(ctx context.Context, r *Repository, cart *models.Cart) error {
		variant, err := s.loadVariant(ctx, r, variantID)
		if err != nil {
			return err
		}
		item := findItem(cart, variantID)
		if item == nil {
			item = &models.CartItem{CartID: cart.ID, VariantID: variantID}
		}
		total := item.Quantity + qty
		if err := checkQuantity(variant, total); err != nil {
			return err
		}
		item.Quantity = total
		item.UnitPrice = variant.Price
		item.LineTotal = variant.Price * int64(total)
		return r.SaveItem(ctx, item)
	})
}

func (s *service) UpdateItem(ctx context.Context, owner Owner, variantID uuid.UUID, qty int) (*View, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, owner, variantID)
	}
	return s.mutate(ctx, owner, func(ctx context.Context, r *Repository, cart *models.Cart) error {
		item := findItem(cart, variantID)
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		variant, err := s.loadVariant(ctx, r, variantID)
		if err != nil {
			return err
		}
		if err := checkQuantity(variant, qty); err != nil {
			return err
		}
		item.Quantity = qty
		item.UnitPrice = variant.Price
		item.LineTotal = variant.Price * int64(qty)
		return r.SaveItem(ctx, item)
	})
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, variantID uuid.UUID) (*View, error) {
	return s.mutate(ctx, owner, func(ctx context.Context, r *Repository, cart *models.Cart) error {
		return r.DeleteItem(ctx, cart.ID, variantID)
	})
}

func (s *service) Clear(ctx context.Context, owner Owner) (*View, error) {
	return s.mutate(ctx, owner, func(ctx context.Context, r *Repository, cart *models.Cart) error {
		cart.CouponCode = nil
		return r.DeleteItems(ctx, cart.ID)
	})
}

func (s *service) ApplyCoupon(ctx context.Context, owner Owner, code string) (*View, error) {
	return s.mutate(ctx, owner, func(ctx context.Context, r *Repository, cart *models.Cart) error {
		coupon, err := s.coupons.ResolveTx(ctx, r.db, code, s.now())
		if err != nil {
			return err
		}
		cart.CouponCode = &coupon.Code
		return nil
	})
}

func (s *service) RemoveCoupon(ctx context.Context, owner Owner) (*View, error) {
	return s.mutate(ctx, owner, func(ctx context.Context, _ *Repository, cart *models.Cart) error {
		cart.CouponCode = nil
		return nil
	})
}

type mutation func(ctx context.Context, r *Repository, cart *models.Cart) error

// mutate loads or creates the owner's cart, applies fn and recomputes totals,
// all in one transaction.
func (s *service) mutate(ctx context.Context, owner Owner, fn mutation) (*View, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		cart, err := s.loadOrCreate(ctx, r, owner)
		if err != nil {
			return err
		}
		if fn != nil {
			coupon := cart.CouponCode
			if err := fn(ctx, r, cart); err != nil {
				return err
			}
			reloaded, err := r.FindByID(ctx, cart.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
			}
			if cart.CouponCode != coupon {
				reloaded.CouponCode = cart.CouponCode
			}
			cart = reloaded
		}
		view, err = s.recompute(ctx, r, cart)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart")
	}
	return view, nil
}

func (s *service) loadOrCreate(ctx context.Context, r *Repository, owner Owner) (*models.Cart, error) {
	cart, err := r.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	cart = &models.Cart{UserID: owner.UserID, Currency: s.currency}
	if owner.UserID == nil {
		token := strings.TrimSpace(owner.SessionToken)
		cart.SessionToken = &token
	}
	if err := r.Create(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return cart, nil
}

// recompute refreshes unit prices from the variants, prices the cart and
// persists the totals. A coupon that no longer resolves is dropped.
func (s *service) recompute(ctx context.Context, r *Repository, cart *models.Cart) (*View, error) {
	lines := make([]pricing.LineItem, 0, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.Variant != nil && item.Variant.Price != item.UnitPrice {
			item.UnitPrice = item.Variant.Price
			item.LineTotal = item.UnitPrice * int64(item.Quantity)
			if err := r.UpdateItemPrice(ctx, item.ID, item.UnitPrice, item.LineTotal); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "refresh cart price")
			}
		}
		lines = append(lines, pricing.LineItem{
			ProductRef: item.VariantID.String(),
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
		})
	}

	var coupon *pricing.Coupon
	if cart.CouponCode != nil && *cart.CouponCode != "" {
		resolved, err := s.coupons.ResolveTx(ctx, r.db, *cart.CouponCode, s.now())
		switch {
		case err == nil:
			coupon = coupons.ToPricing(resolved)
		case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
			cart.CouponCode = nil
		default:
			return nil, err
		}
	}

	totals, err := s.calculator.ComputeTotals(lines, coupon)
	if err != nil {
		return nil, err
	}
	cart.Subtotal = totals.Subtotal
	cart.DiscountsTotal = totals.DiscountTotal
	cart.ShippingTotal = totals.ShippingTotal
	cart.TaxTotal = totals.TaxTotal
	cart.GrandTotal = totals.GrandTotal
	if err := r.SaveTotals(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart totals")
	}
	return newView(cart, totals), nil
}

func (s *service) loadVariant(ctx context.Context, r *Repository, id uuid.UUID) (*models.Variant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.FieldError("variant_id", "variant_id is required")
	}
	variant, err := r.FindVariant(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
	}
	if variant.Product != nil && !variant.Product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return variant, nil
}

func checkQuantity(variant *models.Variant, qty int) error {
	if qty > MaxLineQuantity {
		return pkgerrors.FieldError("quantity", "quantity exceeds the per-item limit")
	}
	available := 0
	if variant.Inventory != nil {
		available = variant.Inventory.Quantity
	}
	if qty > available {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
			WithDetails(map[string]any{"variant_id": variant.ID.String(), "available": available})
	}
	return nil
}

func findItem(cart *models.Cart, variantID uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].VariantID == variantID {
			item := cart.Items[i]
			return &item
		}
	}
	return nil
}
