package cart

import (
	"github.com/angelmondragon/gearhub-backend/internal/pricing"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
)

// View is the cart as returned to clients.
type View struct {
	ID           string         `json:"id"`
	SessionToken string         `json:"session_token,omitempty"`
	Currency     string         `json:"currency"`
	CouponCode   string         `json:"coupon_code,omitempty"`
	Items        []ItemView     `json:"items"`
	ItemCount    int            `json:"item_count"`
	Totals       pricing.Result `json:"totals"`
}

// ItemView is one cart line.
type ItemView struct {
	VariantID   string `json:"variant_id"`
	ProductID   string `json:"product_id,omitempty"`
	ProductSlug string `json:"product_slug,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
	SKU         string `json:"sku,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	LineTotal   int64  `json:"line_total"`
	Available   int    `json:"available"`
}

func newView(cart *models.Cart, totals pricing.Result) *View {
	v := &View{
		ID:       cart.ID.String(),
		Currency: cart.Currency,
		Items:    make([]ItemView, 0, len(cart.Items)),
		Totals:   totals,
	}
	if cart.SessionToken != nil {
		v.SessionToken = *cart.SessionToken
	}
	if cart.CouponCode != nil {
		v.CouponCode = *cart.CouponCode
	}
	for _, item := range cart.Items {
		iv := ItemView{
			VariantID: item.VariantID.String(),
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		}
		if variant := item.Variant; variant != nil {
			iv.VariantName = variant.Name
			iv.SKU = variant.SKU
			if variant.Inventory != nil {
				iv.Available = variant.Inventory.Quantity
			}
			if p := variant.Product; p != nil {
				iv.ProductID = p.ID.String()
				iv.ProductSlug = p.Slug
				iv.ProductName = p.Name
				if len(p.Images) > 0 {
					iv.ImageURL = p.Images[0].URL
				}
			}
		}
		v.ItemCount += item.Quantity
		v.Items = append(v.Items, iv)
	}
	return v
}
