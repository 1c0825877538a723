package orders

import (
	"github.com/angelmondragon/gearhub-backend/pkg/types"
)

type checkoutRequest struct {
	Email           string         `json:"email" validate:"required,email,max=254"`
	PaymentMethod   string         `json:"payment_method" validate:"required"`
	ShippingMethod  string         `json:"shipping_method"`
	ShippingAddress types.Address  `json:"shipping_address"`
	BillingAddress  *types.Address `json:"billing_address,omitempty" validate:"omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
