package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/gearhub-backend/api/responses"
	"github.com/angelmondragon/gearhub-backend/api/validators"
	"github.com/angelmondragon/gearhub-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/pagination"
)

const (
	maxSearchLen    = 100
	maxRelatedLimit = 12
)

// CatalogList serves the filtered, sorted and paginated product listing.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseCatalogQuery(r *http.Request) (catalog.ListInput, error) {
	q := r.URL.Query()

	sort, err := catalog.ParseSortKey(q.Get("sort"))
	if err != nil {
		return catalog.ListInput{}, pkgerrors.FieldError("sort", err.Error())
	}
	minPrice, err := validators.ParseQueryAmount(r, "min_price")
	if err != nil {
		return catalog.ListInput{}, err
	}
	maxPrice, err := validators.ParseQueryAmount(r, "max_price")
	if err != nil {
		return catalog.ListInput{}, err
	}
	inStock, err := validators.ParseQueryBool(r, "in_stock")
	if err != nil {
		return catalog.ListInput{}, err
	}
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return catalog.ListInput{}, err
	}
	perPage, err := validators.ParseQueryInt(r, "per_page", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
	if err != nil {
		return catalog.ListInput{}, err
	}

	return catalog.ListInput{
		Query: catalog.Query{
			Text:        validators.SearchTerm(q.Get("q"), maxSearchLen),
			Category:    strings.TrimSpace(q.Get("category")),
			Brands:      validators.ParseQueryList(r, "brand"),
			PriceMin:    minPrice,
			PriceMax:    maxPrice,
			InStockOnly: inStock,
			Sort:        sort,
		},
		Page: pagination.Page{Page: page, PerPage: perPage},
	}, nil
}

func CatalogProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		product, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CatalogRelated(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 4, 1, maxRelatedLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := svc.Related(r.Context(), chi.URLParam(r, "slug"), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": products})
	}
}

func CatalogFeatured(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 8, 1, pagination.MaxPerPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := svc.Featured(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": products})
	}
}

func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": categories})
	}
}

func CatalogBrands(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		brands, err := svc.Brands(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": brands})
	}
}
