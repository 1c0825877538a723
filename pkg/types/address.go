package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a postal address stored as jsonb on orders.
type Address struct {
	FullName   string  `json:"full_name" validate:"required,min=2,max=120"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=120"`
	State      string  `json:"state" validate:"required,max=120"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"omitempty,len=2"`
}

// Normalize trims the free-text fields and defaults the country to US.
func (a Address) Normalize() Address {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	if a.Country == "" {
		a.Country = "US"
	}
	return a
}

// IsZero reports whether the address was never filled in.
func (a Address) IsZero() bool {
	return a.Line1 == "" && a.City == "" && a.PostalCode == ""
}

// Value marshals Address into jsonb.
func (a Address) Value() (driver.Value, error) {
	if a.IsZero() {
		return nil, nil
	}
	return marshalJSONB(a)
}

// Scan decodes the jsonb payload.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	return unmarshalJSONB("address", value, a)
}

func marshalJSONB(v any) (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func unmarshalJSONB(name string, value interface{}, dest any) error {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("%s: unsupported scan type %T", name, value)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
