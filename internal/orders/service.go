// Package orders turns carts into orders and serves order lookups and admin
// status changes.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/internal/cart"
	"github.com/angelmondragon/gearhub-backend/internal/coupons"
	"github.com/angelmondragon/gearhub-backend/internal/ordernumber"
	"github.com/angelmondragon/gearhub-backend/internal/pricing"
	"github.com/angelmondragon/gearhub-backend/pkg/db"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/gearhub-backend/pkg/pagination"
	"github.com/angelmondragon/gearhub-backend/pkg/stripe"
	"github.com/angelmondragon/gearhub-backend/pkg/types"
)

const (
	// AdminPerPage is the admin order list page size.
	AdminPerPage    = 20
	adminMaxPerPage = 100

	auditActionStatus = "UPDATE_ORDER_STATUS"
	auditEntityOrder  = "order"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type couponService interface {
	ResolveTx(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Coupon, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Coupon, error)
}

type numberAssigner interface {
	Assign(ctx context.Context, tx *gorm.DB, insert ordernumber.InsertFunc) (string, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PaymentInitiator opens a card payment with the gateway.
type PaymentInitiator interface {
	CreatePaymentIntent(ctx context.Context, params stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
}

// Service defines checkout, lookup and admin order operations.
type Service interface {
	CreateFromCart(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	GetByNumber(ctx context.Context, number, email string) (*View, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*View, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*View, error)
}

// ServiceParams groups the order service collaborators.
type ServiceParams struct {
	Repository *Repository
	Carts      *cart.Repository
	Tx         txRunner
	Calculator *pricing.Calculator
	Coupons    couponService
	Numbers    numberAssigner
	Outbox     outboxPublisher
	// Payments is optional; without it card orders stay INITIATED with no intent.
	Payments PaymentInitiator
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo       *Repository
	carts      *cart.Repository
	tx         txRunner
	calculator *pricing.Calculator
	coupons    couponService
	numbers    numberAssigner
	outbox     outboxPublisher
	payments   PaymentInitiator
	logg       *logger.Logger
	now        func() time.Time
}

// CheckoutInput is a validated checkout request.
type CheckoutInput struct {
	Owner           cart.Owner
	Email           string
	PaymentProvider enums.PaymentProvider
	ShippingMethod  enums.ShippingMethod
	ShippingAddress types.Address
	// BillingAddress defaults to the shipping address.
	BillingAddress *types.Address
}

// ListInput filters the admin order list.
type ListInput struct {
	Status string
	Query  string
	Page   pagination.Page
}

// UpdateStatusInput moves an order to a new status on behalf of an admin.
type UpdateStatusInput struct {
	OrderID     uuid.UUID
	Status      string
	ActorUserID uuid.UUID
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, errors.New("orders repository required")
	}
	if params.Carts == nil {
		return nil, errors.New("cart repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Calculator == nil {
		return nil, errors.New("pricing calculator required")
	}
	if params.Coupons == nil {
		return nil, errors.New("coupon service required")
	}
	if params.Numbers == nil {
		return nil, errors.New("order number generator required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:       params.Repository,
		carts:      params.Carts,
		tx:         params.Tx,
		calculator: params.Calculator,
		coupons:    params.Coupons,
		numbers:    params.Numbers,
		outbox:     params.Outbox,
		payments:   params.Payments,
		logg:       params.Logger,
		now:        now,
	}, nil
}

func (in CheckoutInput) validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return pkgerrors.FieldError("email", "email is required")
	}
	if !in.PaymentProvider.IsValid() {
		return pkgerrors.FieldError("payment_method", "unsupported payment method")
	}
	if !in.ShippingMethod.IsValid() {
		return pkgerrors.FieldError("shipping_method", "unsupported shipping method")
	}
	if in.ShippingAddress.IsZero() {
		return pkgerrors.FieldError("shipping_address", "shipping address is required")
	}
	return nil
}

// CreateFromCart places an order for the owner's cart. Stock, coupon
// redemption, numbering, inventory, payment row, cart clearing and the
// order_created event commit or roll back together.
func (s *service) CreateFromCart(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	shipping := input.ShippingAddress.Normalize()
	billing := shipping
	if input.BillingAddress != nil && !input.BillingAddress.IsZero() {
		billing = input.BillingAddress.Normalize()
	}
	now := s.now().UTC()

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		repo := s.repo.WithTx(tx)

		c, err := carts.FindByOwner(ctx, input.Owner)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(c.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		if err := s.checkStock(ctx, repo, c); err != nil {
			return err
		}

		lines := make([]pricing.LineItem, 0, len(c.Items))
		for _, item := range c.Items {
			lines = append(lines, pricing.LineItem{
				ProductRef: item.VariantID.String(),
				UnitPrice:  item.Variant.Price,
				Quantity:   item.Quantity,
			})
		}

		couponCode, coupon, err := s.resolveCoupon(ctx, tx, c)
		if err != nil {
			return err
		}
		totals, err := s.calculator.Quote(lines, coupon, pricing.Options{ShippingMethod: input.ShippingMethod})
		if err != nil {
			return err
		}
		if couponCode != nil && totals.CouponApplied {
			if _, err := s.coupons.Redeem(ctx, tx, *couponCode, now); err != nil {
				return err
			}
		} else {
			couponCode = nil
		}

		order = &models.Order{
			UserID:          input.Owner.UserID,
			Email:           strings.ToLower(strings.TrimSpace(input.Email)),
			Status:          enums.OrderStatusPending,
			PaymentStatus:   input.PaymentProvider.InitialPaymentStatus(),
			PaymentProvider: input.PaymentProvider,
			ShippingMethod:  input.ShippingMethod,
			Currency:        c.Currency,
			CouponCode:      couponCode,
			Subtotal:        totals.Subtotal,
			DiscountsTotal:  totals.DiscountTotal,
			ShippingTotal:   totals.ShippingTotal,
			TaxTotal:        totals.TaxTotal,
			GrandTotal:      totals.GrandTotal,
			ShippingAddress: shipping,
			BillingAddress:  billing,
		}
		if _, err := s.numbers.Assign(ctx, tx, func(tx *gorm.DB, number string) error {
			order.OrderNumber = number
			return repo.WithTx(tx).CreateOrder(ctx, order)
		}); err != nil {
			return numberError(err)
		}

		order.Items = make([]models.OrderItem, 0, len(c.Items))
		for _, item := range c.Items {
			order.Items = append(order.Items, models.OrderItem{
				OrderID:   order.ID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
				UnitPrice: item.Variant.Price,
				LineTotal: item.Variant.Price * int64(item.Quantity),
				Snapshot:  snapshotOf(item.Variant),
			})
		}
		if err := repo.CreateItems(ctx, order.Items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}

		for _, item := range c.Items {
			ok, err := repo.DecrementInventory(ctx, item.VariantID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement inventory")
			}
			if !ok {
				return insufficientStock(item.VariantID, 0, item.Quantity)
			}
		}

		payment := &models.Payment{
			OrderID:  order.ID,
			Provider: input.PaymentProvider,
			Amount:   order.GrandTotal,
			Currency: order.Currency,
			Status:   input.PaymentProvider.InitialRecordStatus(),
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment")
		}
		order.Payment = payment

		if err := carts.DeleteItems(ctx, c.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		cleared := &models.Cart{ID: c.ID}
		if err := carts.SaveTotals(ctx, cleared); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart totals")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			OccurredAt:    now,
			Data:          orderCreatedPayload(order, now),
		})
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{Order: newView(order)}
	if order.PaymentProvider == enums.PaymentProviderStripe {
		result.ClientSecret = s.initiatePayment(ctx, order)
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
			"grand_total":      order.GrandTotal,
			"payment_provider": order.PaymentProvider,
		}), "order created")
	}
	return result, nil
}

// checkStock locks inventory in variant order and rejects any line the
// stock cannot cover.
func (s *service) checkStock(ctx context.Context, repo *Repository, c *models.Cart) error {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Variant == nil || (item.Variant.Product != nil && !item.Variant.Product.IsActive) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "item is no longer available").
				WithDetails(map[string]any{"variant_id": item.VariantID.String()})
		}
		ids = append(ids, item.VariantID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	stock, err := repo.LockInventory(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock inventory")
	}
	for _, item := range c.Items {
		if available := stock[item.VariantID]; available < item.Quantity {
			return insufficientStock(item.VariantID, available, item.Quantity)
		}
	}
	return nil
}

func (s *service) resolveCoupon(ctx context.Context, tx *gorm.DB, c *models.Cart) (*string, *pricing.Coupon, error) {
	if c.CouponCode == nil || strings.TrimSpace(*c.CouponCode) == "" {
		return nil, nil, nil
	}
	resolved, err := s.coupons.ResolveTx(ctx, tx, *c.CouponCode, s.now())
	if err != nil {
		return nil, nil, err
	}
	code := resolved.Code
	return &code, coupons.ToPricing(resolved), nil
}

// initiatePayment opens a PaymentIntent after commit. Failures leave the
// order in place with an INITIATED payment row.
func (s *service) initiatePayment(ctx context.Context, order *models.Order) *string {
	if s.payments == nil {
		return nil
	}
	intent, err := s.payments.CreatePaymentIntent(ctx, stripe.PaymentIntentCreateParams{
		Amount:         order.GrandTotal,
		Currency:       order.Currency,
		OrderID:        order.ID.String(),
		OrderNumber:    order.OrderNumber,
		ReceiptEmail:   order.Email,
		IdempotencyKey: "gh-order-" + order.OrderNumber,
	})
	if err != nil {
		s.warn(ctx, order.OrderNumber, "payment intent creation failed", err)
		return nil
	}
	if err := s.repo.SetPaymentReference(ctx, order.ID, intent.ID); err != nil {
		s.warn(ctx, order.OrderNumber, "payment reference not saved", err)
	} else if order.Payment != nil {
		ref := intent.ID
		order.Payment.ProviderRef = &ref
	}
	if intent.ClientSecret == "" {
		return nil
	}
	secret := intent.ClientSecret
	return &secret
}

func (s *service) warn(ctx context.Context, number, msg string, err error) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithOrderNumber(ctx, number)
	s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), msg)
}

// GetByNumber returns an order for the confirmation page. When email is
// given it must match the order email; mismatches look like a missing order.
func (s *service) GetByNumber(ctx context.Context, number, email string) (*View, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if _, err := ordernumber.Parse(number); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, lookupError(err)
	}
	if email = strings.TrimSpace(email); email != "" && !strings.EqualFold(email, order.Email) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return newView(order), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return newView(order), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	filters := ListFilters{Query: input.Query}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return nil, pkgerrors.FieldError("status", err.Error())
		}
		filters.Status = &status
	}
	page := input.Page.Normalize(AdminPerPage, adminMaxPerPage)
	rows, total, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	items := make([]Summary, 0, len(rows))
	for i := range rows {
		items = append(items, newSummary(&rows[i]))
	}
	return &ListResult{Items: items, Pagination: pagination.NewPageMeta(page, total)}, nil
}

// UpdateStatus moves an order to a new status, records the change in
// audit_logs and emits order_status_changed. Setting the current status is
// a no-op. Cancelled and refunded orders are final; delivered orders can
// only be refunded.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*View, error) {
	status, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.FieldError("status", err.Error())
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor required")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, input.OrderID)
		if err != nil {
			return lookupError(err)
		}
		previous := order.Status
		if previous == status {
			return nil
		}
		if err := checkTransition(previous, status); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}

		diff, err := json.Marshal(map[string]any{
			"status": map[string]string{"from": string(previous), "to": string(status)},
		})
		if err != nil {
			return err
		}
		if err := repo.InsertAudit(ctx, &models.AuditLog{
			ActorUserID: input.ActorUserID,
			Action:      auditActionStatus,
			EntityType:  auditEntityOrder,
			EntityID:    order.ID,
			Diff:        diff,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write audit log")
		}

		now := s.now().UTC()
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: enums.RoleAdmin.String()},
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				UserID:         order.UserID,
				Email:          order.Email,
				PreviousStatus: previous,
				Status:         status,
				GrandTotal:     order.GrandTotal,
				Currency:       order.Currency,
				ChangedBy:      input.ActorUserID,
				ChangedAt:      now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, input.OrderID)
}

func checkTransition(from, to enums.OrderStatus) error {
	switch {
	case from == enums.OrderStatusCancelled || from == enums.OrderStatusRefunded:
	case from == enums.OrderStatusDelivered && to != enums.OrderStatusRefunded:
	default:
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s", from.Label()).
		WithDetails(map[string]any{"from": from, "to": to})
}

func snapshotOf(v *models.Variant) types.ItemSnapshot {
	snap := types.ItemSnapshot{VariantName: v.Name, SKU: v.SKU}
	if p := v.Product; p != nil {
		snap.ProductID = p.ID.String()
		snap.ProductName = p.Name
		snap.ProductSlug = p.Slug
		if len(p.Images) > 0 {
			url := p.Images[0].URL
			snap.ImageURL = &url
		}
	}
	return snap
}

func orderCreatedPayload(o *models.Order, now time.Time) payloads.OrderCreatedEvent {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return payloads.OrderCreatedEvent{
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Email:           o.Email,
		CustomerName:    o.ShippingAddress.FullName,
		Currency:        o.Currency,
		Subtotal:        o.Subtotal,
		DiscountTotal:   o.DiscountsTotal,
		ShippingTotal:   o.ShippingTotal,
		TaxTotal:        o.TaxTotal,
		GrandTotal:      o.GrandTotal,
		ItemCount:       count,
		CouponCode:      o.CouponCode,
		PaymentProvider: o.PaymentProvider,
		ShippingMethod:  o.ShippingMethod,
		CreatedAt:       now,
	}
}

func insufficientStock(variantID uuid.UUID, available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
		WithDetails(map[string]any{
			"variant_id": variantID.String(),
			"available":  available,
			"requested":  requested,
		})
}

func numberError(err error) error {
	switch {
	case errors.Is(err, ordernumber.ErrSequenceExhausted):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "daily order capacity reached")
	case errors.Is(err, ordernumber.ErrStaleSequenceRace):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision, please retry")
	case pkgerrors.As(err) != nil:
		return err
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
}

func lookupError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
}
