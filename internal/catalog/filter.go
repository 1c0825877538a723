// Package catalog serves the storefront product listing. FilterAndSort is the
// pure core; Service loads products through gorm and paginates the result.
package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// SortKey names a listing order.
type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

// SortKeys lists every supported key.
var SortKeys = []SortKey{SortFeatured, SortNewest, SortOldest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc}

// ParseSortKey accepts the known keys case-insensitively. Empty means featured.
func ParseSortKey(raw string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(raw)))
	if key == "" {
		return SortFeatured, nil
	}
	if slices.Contains(SortKeys, key) {
		return key, nil
	}
	return "", fmt.Errorf("unsupported sort %q", raw)
}

// Query narrows and orders a product list. Zero values disable a filter.
type Query struct {
	Text        string
	Category    string
	Brands      []string
	PriceMin    *int64
	PriceMax    *int64
	InStockOnly bool
	Sort        SortKey
}

// Variant is a purchasable option of a product.
type Variant struct {
	ID             string `json:"id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Price          int64  `json:"price"`
	CompareAtPrice *int64 `json:"compare_at_price,omitempty"`
	Available      int    `json:"available"`
}

// Image is an ordered product image.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// CategoryRef is the category summary embedded in a product.
type CategoryRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Product is the catalog view of a listing.
type Product struct {
	ID          string      `json:"id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Subtitle    string      `json:"subtitle,omitempty"`
	Brand       string      `json:"brand"`
	Description string      `json:"description"`
	Category    CategoryRef `json:"category"`
	Featured    bool        `json:"featured"`
	RatingAvg   float64     `json:"rating_avg"`
	RatingCount int         `json:"rating_count"`
	Specs       any         `json:"specs,omitempty"`
	Images      []Image     `json:"images"`
	Variants    []Variant   `json:"variants"`
	CreatedAt   time.Time   `json:"created_at"`
}

// MinPrice returns the lowest variant price; ok is false without variants.
func (p Product) MinPrice() (int64, bool) {
	if len(p.Variants) == 0 {
		return 0, false
	}
	lowest := p.Variants[0].Price
	for _, v := range p.Variants[1:] {
		if v.Price < lowest {
			lowest = v.Price
		}
	}
	return lowest, true
}

// InStock reports whether any variant has units available.
func (p Product) InStock() bool {
	for _, v := range p.Variants {
		if v.Available > 0 {
			return true
		}
	}
	return false
}

// FilterAndSort returns the products matching q in the requested order. The
// input slice is never modified and ties keep their input order. Unknown sort
// keys fall back to featured.
func FilterAndSort(products []Product, q Query) []Product {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	category := strings.ToLower(strings.TrimSpace(q.Category))
	brands := brandSet(q.Brands)

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if text != "" && !matchesText(p, text) {
			continue
		}
		if category != "" && !matchesCategory(p, category) {
			continue
		}
		if len(brands) > 0 {
			if _, ok := brands[strings.ToLower(strings.TrimSpace(p.Brand))]; !ok {
				continue
			}
		}
		if (q.PriceMin != nil || q.PriceMax != nil) && !inPriceRange(p, q.PriceMin, q.PriceMax) {
			continue
		}
		if q.InStockOnly && !p.InStock() {
			continue
		}
		out = append(out, p)
	}

	slices.SortStableFunc(out, comparator(q.Sort))
	return out
}

func brandSet(brands []string) map[string]struct{} {
	set := make(map[string]struct{}, len(brands))
	for _, b := range brands {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" {
			set[b] = struct{}{}
		}
	}
	return set
}

func matchesText(p Product, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Brand), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}

func matchesCategory(p Product, category string) bool {
	return strings.ToLower(p.Category.Slug) == category || strings.ToLower(p.Category.ID) == category
}

func inPriceRange(p Product, lo, hi *int64) bool {
	price, ok := p.MinPrice()
	if !ok {
		return false
	}
	if lo != nil && price < *lo {
		return false
	}
	if hi != nil && price > *hi {
		return false
	}
	return true
}

func comparator(key SortKey) func(a, b Product) int {
	switch SortKey(strings.ToLower(string(key))) {
	case SortNewest:
		return func(a, b Product) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortOldest:
		return func(a, b Product) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortPriceAsc:
		return func(a, b Product) int { return comparePrice(a, b, false) }
	case SortPriceDesc:
		return func(a, b Product) int { return comparePrice(a, b, true) }
	case SortNameAsc:
		return func(a, b Product) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case SortNameDesc:
		return func(a, b Product) int { return cmp.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name)) }
	default:
		return func(a, b Product) int {
			if a.Featured != b.Featured {
				if a.Featured {
					return -1
				}
				return 1
			}
			return b.CreatedAt.Compare(a.CreatedAt)
		}
	}
}

// comparePrice orders by minimum variant price; products without variants go last.
func comparePrice(a, b Product, desc bool) int {
	pa, okA := a.MinPrice()
	pb, okB := b.MinPrice()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	if desc {
		return cmp.Compare(pb, pa)
	}
	return cmp.Compare(pa, pb)
}
