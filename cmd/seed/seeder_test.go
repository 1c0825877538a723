package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gearhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
)

func TestSeederInsertsFixtures(t *testing.T) {
	conn := dbtest.Open(t)

	out, err := (&seeder{db: conn}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(categoryFixtures), out.Categories)
	assert.Equal(t, len(productFixtures), out.Products)
	assert.Equal(t, 10, out.Variants)
	assert.Equal(t, len(couponFixtures), out.Coupons)
	assert.Equal(t, len(faqFixtures), out.FAQs)

	var variant models.Variant
	require.NoError(t, conn.Where("sku = ?", "IPH15-CASE-BLK").Take(&variant).Error)
	require.NotNil(t, variant.CompareAtPrice)
	assert.EqualValues(t, 3499, *variant.CompareAtPrice)

	var stock models.Inventory
	require.NoError(t, conn.Where("variant_id = ?", variant.ID).Take(&stock).Error)
	assert.Equal(t, 50, stock.Quantity)

	var images int64
	require.NoError(t, conn.Model(&models.ProductImage{}).Count(&images).Error)
	assert.EqualValues(t, len(productFixtures), images)
}

func TestSeederIsIdempotent(t *testing.T) {
	conn := dbtest.Open(t)
	s := &seeder{db: conn}

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	second, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, summary{}, second)

	var products, coupons int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, conn.Model(&models.Coupon{}).Count(&coupons).Error)
	assert.EqualValues(t, len(productFixtures), products)
	assert.EqualValues(t, len(couponFixtures), coupons)
}

func TestProductFixturesReferenceKnownCategories(t *testing.T) {
	known := make(map[string]bool, len(categoryFixtures))
	for _, c := range categoryFixtures {
		known[c.Slug] = true
	}
	skus := map[string]bool{}
	for _, p := range productFixtures {
		assert.True(t, known[p.Category], "product %s uses unknown category %s", p.Slug, p.Category)
		for _, v := range p.Variants {
			assert.False(t, skus[v.SKU], "duplicate sku %s", v.SKU)
			skus[v.SKU] = true
		}
	}
}
