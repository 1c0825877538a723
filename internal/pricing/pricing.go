// Package pricing derives cart and order totals. Every amount is an int64 in
// minor currency units (cents).
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
)

// ErrInvalidInput marks malformed line items or coupon definitions.
var ErrInvalidInput = errors.New("invalid pricing input")

const (
	DefaultFreeShippingThreshold int64 = 5000
	DefaultFlatShippingFee       int64 = 500
	DefaultExpressShippingFee    int64 = 1500
)

// DefaultTaxRate is 8%.
var DefaultTaxRate = decimal.RequireFromString("0.08")

// Coupon reasons reported when a coupon is present but not applied.
const (
	ReasonBelowMinSubtotal = "below_min_subtotal"
	ReasonEmptyCart        = "empty_cart"
)

var hundred = decimal.NewFromInt(100)

// LineItem is one priced entry.
type LineItem struct {
	ProductRef string
	UnitPrice  int64
	Quantity   int
}

// LineTotal is unitPrice x quantity.
func (l LineItem) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Coupon is the pricing view of a discount rule. Value is a percentage
// (0-100) for PERCENT coupons and minor units for FIXED ones.
type Coupon struct {
	Code        string
	Kind        enums.CouponType
	Value       int64
	MinSubtotal *int64
}

// Options carries per-request choices that affect totals.
type Options struct {
	ShippingMethod enums.ShippingMethod
}

// Result holds the derived totals.
type Result struct {
	Subtotal      int64  `json:"subtotal"`
	DiscountTotal int64  `json:"discount_total"`
	ShippingTotal int64  `json:"shipping_total"`
	TaxTotal      int64  `json:"tax_total"`
	GrandTotal    int64  `json:"grand_total"`
	CouponCode    string `json:"coupon_code,omitempty"`
	CouponApplied bool   `json:"coupon_applied"`
	CouponReason  string `json:"coupon_reason,omitempty"`
}

// Config is the single source of shipping and tax parameters.
type Config struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
	ExpressShippingFee    int64
	TaxRate               decimal.Decimal
}

// DefaultConfig returns the documented defaults: free shipping from 5000,
// 500 flat fee, 1500 express fee and 8% tax.
func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShippingFee:       DefaultFlatShippingFee,
		ExpressShippingFee:    DefaultExpressShippingFee,
		TaxRate:               DefaultTaxRate,
	}
}

// ConfigFromEnv converts the env-backed configuration section.
func ConfigFromEnv(cfg config.PricingConfig) (Config, error) {
	out := Config{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
		ExpressShippingFee:    cfg.ExpressShippingFee,
		TaxRate:               DefaultTaxRate,
	}
	if raw := strings.TrimSpace(cfg.TaxRate); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse tax rate %q: %w", raw, err)
		}
		out.TaxRate = rate
	}
	return out, out.validate()
}

func (c Config) validate() error {
	if c.FreeShippingThreshold < 0 || c.FlatShippingFee < 0 || c.ExpressShippingFee < 0 {
		return errors.New("shipping threshold and fees must be non-negative")
	}
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate %s must be between 0 and 1", c.TaxRate)
	}
	return nil
}

// Calculator is safe for concurrent use; it holds no mutable state.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) (*Calculator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg}, nil
}

// Config exposes the parameters the calculator was built with.
func (c *Calculator) Config() Config {
	return c.cfg
}

// ComputeTotals prices line items with standard shipping.
func (c *Calculator) ComputeTotals(items []LineItem, coupon *Coupon) (Result, error) {
	return c.Quote(items, coupon, Options{})
}

// Quote prices line items for the requested options.
func (c *Calculator) Quote(items []LineItem, coupon *Coupon, opts Options) (Result, error) {
	subtotal, err := subtotalOf(items)
	if err != nil {
		return Result{}, err
	}
	if err := validateCoupon(coupon); err != nil {
		return Result{}, err
	}

	empty := len(items) == 0
	res := Result{Subtotal: subtotal}
	if coupon != nil {
		res.CouponCode = coupon.Code
		res.DiscountTotal, res.CouponReason = discountFor(subtotal, empty, coupon)
		res.CouponApplied = res.CouponReason == ""
	}
	res.ShippingTotal = c.shippingFor(subtotal, empty, opts.ShippingMethod)
	res.TaxTotal = roundToMinor(decimal.NewFromInt(subtotal).Mul(c.cfg.TaxRate))

	res.GrandTotal = res.Subtotal - res.DiscountTotal + res.ShippingTotal + res.TaxTotal
	if res.GrandTotal < 0 {
		res.GrandTotal = 0
	}
	return res, nil
}

func (c *Calculator) shippingFor(subtotal int64, empty bool, method enums.ShippingMethod) int64 {
	if empty {
		return 0
	}
	if method == enums.ShippingMethodExpress {
		return c.cfg.ExpressShippingFee
	}
	if subtotal >= c.cfg.FreeShippingThreshold {
		return 0
	}
	return c.cfg.FlatShippingFee
}

func subtotalOf(items []LineItem) (int64, error) {
	var subtotal int64
	for i, item := range items {
		if item.Quantity <= 0 {
			return 0, invalid(fmt.Sprintf("line %d: quantity must be positive", i))
		}
		if item.UnitPrice < 0 {
			return 0, invalid(fmt.Sprintf("line %d: unit price must not be negative", i))
		}
		if item.UnitPrice > 0 && int64(item.Quantity) > math.MaxInt64/item.UnitPrice {
			return 0, invalid(fmt.Sprintf("line %d: total overflows", i))
		}
		line := item.LineTotal()
		if subtotal > math.MaxInt64-line {
			return 0, invalid("subtotal overflows")
		}
		subtotal += line
	}
	return subtotal, nil
}

func validateCoupon(coupon *Coupon) error {
	if coupon == nil {
		return nil
	}
	switch coupon.Kind {
	case enums.CouponTypePercent:
		if coupon.Value < 0 || coupon.Value > 100 {
			return invalid("percent coupon value must be between 0 and 100")
		}
	case enums.CouponTypeFixed:
		if coupon.Value < 0 {
			return invalid("fixed coupon value must not be negative")
		}
	default:
		return invalid(fmt.Sprintf("unknown coupon kind %q", coupon.Kind))
	}
	if coupon.MinSubtotal != nil && *coupon.MinSubtotal < 0 {
		return invalid("coupon minimum subtotal must not be negative")
	}
	return nil
}

// discountFor returns the discount and, when it is zero because the coupon
// does not apply, the reason.
func discountFor(subtotal int64, empty bool, coupon *Coupon) (int64, string) {
	if empty {
		return 0, ReasonEmptyCart
	}
	if coupon.MinSubtotal != nil && subtotal < *coupon.MinSubtotal {
		return 0, ReasonBelowMinSubtotal
	}

	var discount int64
	switch coupon.Kind {
	case enums.CouponTypePercent:
		discount = roundToMinor(decimal.NewFromInt(subtotal).Mul(decimal.NewFromInt(coupon.Value)).Div(hundred))
	case enums.CouponTypeFixed:
		discount = coupon.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount, ""
}

// roundToMinor rounds half away from zero to a whole minor unit.
func roundToMinor(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

func invalid(msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidInput, msg)
}

// Validate checks a coupon definition without pricing anything.
func (c *Coupon) Validate() error {
	return validateCoupon(c)
}
