package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products for browsing.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex:ux_categories_slug"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	Position    int       `gorm:"column:position;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Product is a catalog listing; prices live on its variants.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex:ux_products_slug"`
	Name        string          `gorm:"column:name;not null"`
	Subtitle    *string         `gorm:"column:subtitle"`
	Description string          `gorm:"column:description;not null;default:''"`
	Brand       string          `gorm:"column:brand;not null;default:''"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	Category    *Category       `gorm:"foreignKey:CategoryID"`
	Featured    bool            `gorm:"column:featured;not null;default:false"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	RatingAvg   float64         `gorm:"column:rating_avg;not null;default:0"`
	RatingCount int             `gorm:"column:rating_count;not null;default:0"`
	Specs       json.RawMessage `gorm:"column:specs;type:jsonb"`
	Images      []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variants    []Variant       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductImage is an ordered image reference.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	URL       string    `gorm:"column:url;not null"`
	Alt       *string   `gorm:"column:alt"`
	Position  int       `gorm:"column:position;not null;default:0"`
}

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Variant is the purchasable unit (color, pack size, ...).
type Variant struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	Product        *Product   `gorm:"foreignKey:ProductID"`
	SKU            string     `gorm:"column:sku;not null;uniqueIndex:ux_variants_sku"`
	Name           string     `gorm:"column:name;not null"`
	Price          int64      `gorm:"column:price;not null"`
	CompareAtPrice *int64     `gorm:"column:compare_at_price"`
	Position       int        `gorm:"column:position;not null;default:0"`
	Inventory      *Inventory `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (v *Variant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// Inventory tracks on-hand units per variant.
type Inventory struct {
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Inventory) TableName() string {
	return "inventory"
}
