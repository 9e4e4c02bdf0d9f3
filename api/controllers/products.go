package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/gearstore/api/responses"
	"github.com/angelmondragon/gearstore/api/validators"
	"github.com/angelmondragon/gearstore/internal/shop"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/storeapi"
)

const maxSearchLength = 100

// ListProducts proxies the catalog with the team, search and price filters.
func ListProducts(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		query := r.URL.Query()
		filter := storeapi.ProductFilter{
			Team:   validators.SanitizeString(query.Get("team"), maxSearchLength),
			Search: validators.SanitizeString(query.Get("search"), maxSearchLength),
		}

		priceMin, err := validators.ParseQueryDecimal(r, "price_min")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priceMax, err := validators.ParseQueryDecimal(r, "price_max")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if priceMin != nil && priceMax != nil && priceMin.GreaterThan(*priceMax) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price_min must not exceed price_max"))
			return
		}
		if priceMin != nil {
			filter.PriceMin = priceMin.String()
		}
		if priceMax != nil {
			filter.PriceMax = priceMax.String()
		}

		products, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// GetProduct returns one product with its variants.
func GetProduct(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListCategories returns the catalog's categories.
func ListCategories(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// AddCartItem puts a product size into the cart after the stock check.
func AddCartItem(svc shop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		var payload shop.AddToCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.Size = strings.TrimSpace(payload.Size)

		item, err := svc.AddToCart(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}
