package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
)

// summary counts the rows inserted by a run. Existing rows are left untouched.
type summary struct {
	Categories int
	Products   int
	Variants   int
	Coupons    int
	FAQs       int
}

type seeder struct {
	db *gorm.DB
}

func (s *seeder) Run(ctx context.Context) (summary, error) {
	var out summary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryIDs, created, err := seedCategories(tx)
		if err != nil {
			return err
		}
		out.Categories = created

		out.Products, out.Variants, err = seedProducts(tx, categoryIDs)
		if err != nil {
			return err
		}
		if out.Coupons, err = seedCoupons(tx); err != nil {
			return err
		}
		out.FAQs, err = seedFAQs(tx)
		return err
	})
	return out, err
}

func seedCategories(tx *gorm.DB) (map[string]uuid.UUID, int, error) {
	ids := make(map[string]uuid.UUID, len(categoryFixtures))
	created := 0
	for i, fx := range categoryFixtures {
		desc := fx.Description
		row := models.Category{
			Slug:        fx.Slug,
			Name:        fx.Name,
			Description: &desc,
			Position:    i,
			IsActive:    true,
		}
		inserted, err := ensureRow(tx, &row, "slug = ?", fx.Slug)
		if err != nil {
			return nil, 0, fmt.Errorf("category %s: %w", fx.Slug, err)
		}
		created += inserted
		ids[fx.Slug] = row.ID
	}
	return ids, created, nil
}

func seedProducts(tx *gorm.DB, categoryIDs map[string]uuid.UUID) (int, int, error) {
	products, variants := 0, 0
	for _, fx := range productFixtures {
		categoryID, ok := categoryIDs[fx.Category]
		if !ok {
			return 0, 0, fmt.Errorf("product %s: unknown category %s", fx.Slug, fx.Category)
		}
		specs, err := json.Marshal(fx.Specs)
		if err != nil {
			return 0, 0, fmt.Errorf("product %s specs: %w", fx.Slug, err)
		}
		subtitle, alt := fx.Subtitle, fx.Name
		row := models.Product{
			Slug:        fx.Slug,
			Name:        fx.Name,
			Subtitle:    &subtitle,
			Description: fx.Description,
			Brand:       fx.Brand,
			CategoryID:  categoryID,
			Featured:    fx.Featured,
			IsActive:    true,
			Specs:       specs,
			Images:      []models.ProductImage{{URL: fx.ImageURL, Alt: &alt}},
		}
		inserted, err := ensureRow(tx, &row, "slug = ?", fx.Slug)
		if err != nil {
			return 0, 0, fmt.Errorf("product %s: %w", fx.Slug, err)
		}
		products += inserted

		for pos, vf := range fx.Variants {
			n, err := seedVariant(tx, row.ID, pos, vf)
			if err != nil {
				return 0, 0, err
			}
			variants += n
		}
	}
	return products, variants, nil
}

func seedVariant(tx *gorm.DB, productID uuid.UUID, position int, fx variantFixture) (int, error) {
	row := models.Variant{
		ProductID: productID,
		SKU:       fx.SKU,
		Name:      fx.Name,
		Price:     fx.Price,
		Position:  position,
	}
	if fx.CompareAtPrice > 0 {
		compare := fx.CompareAtPrice
		row.CompareAtPrice = &compare
	}
	inserted, err := ensureRow(tx, &row, "sku = ?", fx.SKU)
	if err != nil {
		return 0, fmt.Errorf("variant %s: %w", fx.SKU, err)
	}
	stock := models.Inventory{VariantID: row.ID, Quantity: fx.Quantity}
	if _, err := ensureRow(tx, &stock, "variant_id = ?", row.ID); err != nil {
		return 0, fmt.Errorf("inventory %s: %w", fx.SKU, err)
	}
	return inserted, nil
}

func seedCoupons(tx *gorm.DB) (int, error) {
	created := 0
	for _, fx := range couponFixtures {
		maxRedemptions := fx.MaxRedemptions
		row := models.Coupon{
			Code:           fx.Code,
			Type:           fx.Type,
			Value:          fx.Value,
			MaxRedemptions: &maxRedemptions,
			IsActive:       true,
		}
		if fx.MinSubtotal > 0 {
			minSubtotal := fx.MinSubtotal
			row.MinSubtotal = &minSubtotal
		}
		inserted, err := ensureRow(tx, &row, "code = ?", fx.Code)
		if err != nil {
			return 0, fmt.Errorf("coupon %s: %w", fx.Code, err)
		}
		created += inserted
	}
	return created, nil
}

func seedFAQs(tx *gorm.DB) (int, error) {
	created := 0
	for i, fx := range faqFixtures {
		row := models.FAQ{
			Question: fx.Question,
			Answer:   fx.Answer,
			Tags:     pq.StringArray(fx.Tags),
			Position: i,
			IsActive: true,
		}
		inserted, err := ensureRow(tx, &row, "question = ?", fx.Question)
		if err != nil {
			return 0, fmt.Errorf("faq %q: %w", fx.Question, err)
		}
		created += inserted
	}
	return created, nil
}

// ensureRow inserts row unless one already matches query, in which case row
// is replaced by the stored copy. It returns 1 when a row was inserted.
func ensureRow[T any](tx *gorm.DB, row *T, query string, arg any) (int, error) {
	var existing T
	err := tx.Where(query, arg).Take(&existing).Error
	if err == nil {
		*row = existing
		return 0, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if err := tx.Create(row).Error; err != nil {
		return 0, err
	}
	return 1, nil
}
