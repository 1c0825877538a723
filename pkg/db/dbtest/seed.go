package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
)

// VariantSeed describes one variant to insert.
type VariantSeed struct {
	Name  string
	Price int64
	Stock int
}

// SeedProduct inserts an active product in a fresh category with the given
// variants and inventory, returning the stored product with variants loaded.
func SeedProduct(t testing.TB, conn *gorm.DB, name string, variants ...VariantSeed) models.Product {
	t.Helper()
	suffix := uuid.NewString()[:8]
	category := models.Category{Slug: "cat-" + suffix, Name: "Category " + suffix, IsActive: true}
	require.NoError(t, conn.Create(&category).Error)

	product := models.Product{
		Slug:       fmt.Sprintf("product-%s", suffix),
		Name:       name,
		Brand:      "Gearhub",
		CategoryID: category.ID,
		IsActive:   true,
		Images:     []models.ProductImage{{URL: "https://cdn.test/" + suffix + ".jpg"}},
	}
	for i, v := range variants {
		product.Variants = append(product.Variants, models.Variant{
			SKU:      fmt.Sprintf("SKU-%s-%d", suffix, i),
			Name:     v.Name,
			Price:    v.Price,
			Position: i,
		})
	}
	require.NoError(t, conn.Create(&product).Error)
	for i, v := range variants {
		require.NoError(t, conn.Create(&models.Inventory{VariantID: product.Variants[i].ID, Quantity: v.Stock}).Error)
	}
	return product
}

// Stock returns the on-hand quantity for a variant.
func Stock(t testing.TB, conn *gorm.DB, variantID uuid.UUID) int {
	t.Helper()
	var inv models.Inventory
	require.NoError(t, conn.Where("variant_id = ?", variantID).First(&inv).Error)
	return inv.Quantity
}
