package types

import (
	"database/sql/driver"
)

// ItemSnapshot freezes what the customer saw when the order was placed, so
// later catalog edits never rewrite order history.
type ItemSnapshot struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	ProductSlug string  `json:"product_slug"`
	VariantName string  `json:"variant_name"`
	SKU         string  `json:"sku,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

func (s ItemSnapshot) Value() (driver.Value, error) {
	return marshalJSONB(s)
}

func (s *ItemSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = ItemSnapshot{}
		return nil
	}
	return unmarshalJSONB("item snapshot", value, s)
}
