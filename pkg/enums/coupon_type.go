package enums

// CouponType maps to the coupon_type enum in Postgres.
type CouponType string

const (
	CouponTypePercent CouponType = "PERCENT"
	CouponTypeFixed   CouponType = "FIXED"
)

var couponTypes = newSet("coupon type", upper, CouponTypePercent, CouponTypeFixed)

func (c CouponType) String() string { return string(c) }

func (c CouponType) IsValid() bool { return couponTypes.has(c) }

// ParseCouponType accepts any case ("percent", "Fixed").
func ParseCouponType(value string) (CouponType, error) {
	return couponTypes.parse(value)
}
