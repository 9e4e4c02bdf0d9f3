package storeapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
)

// Category groups products in the catalog.
type Category struct {
	ID   int64  `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug"`
}

// Variant is a purchasable size of a product with its own stock and optional price.
type Variant struct {
	ID            int64               `json:"id" validate:"required"`
	Size          string              `json:"size" validate:"required"`
	Stock         int                 `json:"stock" validate:"gte=0"`
	PriceOverride decimal.NullDecimal `json:"price_override"`
}

// Product is a catalog entry. BasePrice is in the base currency.
type Product struct {
	ID          int64           `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Image       string          `json:"image"`
	Team        string          `json:"team"`
	Description string          `json:"description"`
	Category    *Category       `json:"category"`
	Variants    []Variant       `json:"variants" validate:"omitempty,dive"`
}

// VariantBySize returns the variant labelled size.
func (p Product) VariantBySize(size string) (Variant, bool) {
	for _, variant := range p.Variants {
		if strings.EqualFold(variant.Size, size) {
			return variant, true
		}
	}
	return Variant{}, false
}

// PriceFor returns the variant's override when set, else the product base price.
func (p Product) PriceFor(variant Variant) decimal.Decimal {
	if variant.PriceOverride.Valid {
		return variant.PriceOverride.Decimal
	}
	return p.BasePrice
}

// ProductFilter narrows a product listing. Empty fields are not sent.
type ProductFilter struct {
	Team     string
	Search   string
	PriceMin string
	PriceMax string
}

func (f ProductFilter) values() url.Values {
	query := url.Values{}
	add := func(key, value string) {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			query.Set(key, trimmed)
		}
	}
	add("team", f.Team)
	add("search", f.Search)
	add("price_min", f.PriceMin)
	add("price_max", f.PriceMax)
	return query
}

// ListProducts fetches the catalog, optionally filtered.
func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/api/store/products/", filter.values(), nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// GetProduct fetches one product with its variants.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	var product Product
	path := "/api/store/products/" + strconv.FormatInt(id, 10) + "/"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListCategories fetches the category list.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.do(ctx, http.MethodGet, "/api/store/categories/", nil, nil, &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []Category{}
	}
	return categories, nil
}
