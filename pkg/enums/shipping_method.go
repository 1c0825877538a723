package enums

import "strings"

// ShippingMethod selects the delivery speed at checkout.
type ShippingMethod string

const (
	ShippingMethodStandard ShippingMethod = "standard"
	ShippingMethodExpress  ShippingMethod = "express"
)

var shippingMethods = newSet("shipping method", lower, ShippingMethodStandard, ShippingMethodExpress)

func (s ShippingMethod) String() string { return string(s) }

func (s ShippingMethod) IsValid() bool { return shippingMethods.has(s) }

// ParseShippingMethod defaults empty input to standard shipping.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	if strings.TrimSpace(value) == "" {
		return ShippingMethodStandard, nil
	}
	return shippingMethods.parse(value)
}
