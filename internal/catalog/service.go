package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/pkg/db"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/pagination"
)

const (
	defaultRelatedLimit  = 4
	defaultFeaturedLimit = 8
)

// Service exposes storefront catalog reads.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Related(ctx context.Context, slug string, limit int) ([]Product, error)
	Featured(ctx context.Context, limit int) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
	Brands(ctx context.Context) ([]string, error)
}

type repository interface {
	ActiveProducts(ctx context.Context) ([]models.Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error)
	ProductsInCategory(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	ActiveCategories(ctx context.Context) ([]models.Category, error)
	Brands(ctx context.Context) ([]string, error)
}

// ListInput is a filtered, paginated listing request.
type ListInput struct {
	Query Query
	Page  pagination.Page
}

// ListResult is one page of products plus pagination metadata.
type ListResult struct {
	Items      []Product           `json:"items"`
	Pagination pagination.PageMeta `json:"pagination"`
}

// Category is the public category view.
type Category struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type service struct {
	repo repository
}

// NewService builds the catalog service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	rows, err := s.repo.ActiveProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, toProduct(row))
	}

	filtered := FilterAndSort(products, input.Query)
	page := input.Page.Normalize(pagination.DefaultPerPage, pagination.MaxPerPage)
	start, end := page.Slice(len(filtered))

	return &ListResult{
		Items:      filtered[start:end],
		Pagination: pagination.NewPageMeta(page, int64(len(filtered))),
	}, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	row, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	product := toProduct(*row)
	return &product, nil
}

func (s *service) Related(ctx context.Context, slug string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	row, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ProductsInCategory(ctx, row.CategoryID, row.ID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load related products")
	}
	return toProducts(rows), nil
}

func (s *service) Featured(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}
	rows, err := s.repo.FeaturedProducts(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load featured products")
	}
	return toProducts(rows), nil
}

func (s *service) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.repo.ActiveCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load categories")
	}
	out := make([]Category, 0, len(rows))
	for _, c := range rows {
		cat := Category{ID: c.ID.String(), Slug: c.Slug, Name: c.Name}
		if c.Description != nil {
			cat.Description = *c.Description
		}
		out = append(out, cat)
	}
	return out, nil
}

func (s *service) Brands(ctx context.Context) ([]string, error) {
	brands, err := s.repo.Brands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load brands")
	}
	return brands, nil
}

func (s *service) findBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	row, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return row, nil
}

func toProducts(rows []models.Product) []Product {
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, toProduct(row))
	}
	return out
}

func toProduct(m models.Product) Product {
	p := Product{
		ID:          m.ID.String(),
		Slug:        m.Slug,
		Name:        m.Name,
		Brand:       m.Brand,
		Description: m.Description,
		Featured:    m.Featured,
		RatingAvg:   m.RatingAvg,
		RatingCount: m.RatingCount,
		CreatedAt:   m.CreatedAt,
		Images:      make([]Image, 0, len(m.Images)),
		Variants:    make([]Variant, 0, len(m.Variants)),
	}
	if m.Subtitle != nil {
		p.Subtitle = *m.Subtitle
	}
	if len(m.Specs) > 0 && json.Valid(m.Specs) {
		p.Specs = json.RawMessage(m.Specs)
	}
	p.Category.ID = m.CategoryID.String()
	if m.Category != nil {
		p.Category.Slug = m.Category.Slug
		p.Category.Name = m.Category.Name
	}
	for _, img := range m.Images {
		image := Image{URL: img.URL}
		if img.Alt != nil {
			image.Alt = *img.Alt
		}
		p.Images = append(p.Images, image)
	}
	for _, v := range m.Variants {
		variant := Variant{
			ID:             v.ID.String(),
			SKU:            v.SKU,
			Name:           v.Name,
			Price:          v.Price,
			CompareAtPrice: v.CompareAtPrice,
		}
		if v.Inventory != nil {
			variant.Available = v.Inventory.Quantity
		}
		p.Variants = append(p.Variants, variant)
	}
	return p
}
