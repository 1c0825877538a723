package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
)

// Repository loads catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withProductAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Variants.Inventory")
}

// ActiveProducts returns every active product with its variants, inventory and images.
func (r *Repository) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.withProductAssociations(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

// FeaturedProducts returns up to limit active featured products, newest first.
func (r *Repository) FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.withProductAssociations(ctx).
		Where("is_active = ? AND featured = ?", true, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// ProductsInCategory returns active products of a category other than excludeID.
func (r *Repository) ProductsInCategory(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.withProductAssociations(ctx).
		Where("is_active = ? AND category_id = ? AND id <> ?", true, categoryID, excludeID).
		Order("featured DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// FindBySlug returns an active product by slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.withProductAssociations(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ActiveCategories lists active categories by position.
func (r *Repository) ActiveCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("position ASC").
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

// Brands lists the distinct non-empty brands of active products.
func (r *Repository) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ? AND brand <> ''", true).
		Distinct("brand").
		Order("brand ASC").
		Pluck("brand", &brands).Error
	return brands, err
}
