package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gearstore/api/responses"
	"github.com/angelmondragon/gearstore/api/validators"
	"github.com/angelmondragon/gearstore/internal/cart"
	"github.com/angelmondragon/gearstore/pkg/currency"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
)

// CartStore is the cart surface the controllers mutate.
type CartStore interface {
	Items() []cart.LineItem
	Total() decimal.Decimal
	ItemCount() int
	RemoveItem(ctx context.Context, variantID int64) error
	UpdateQuantity(ctx context.Context, variantID int64, quantity int) error
	Clear(ctx context.Context) error
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type cartLineResponse struct {
	cart.LineItem
	LineTotal     decimal.Decimal `json:"line_total"`
	LineTotalText string          `json:"line_total_text"`
}

type cartResponse struct {
	Items     []cartLineResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Total     decimal.Decimal    `json:"total"`
	TotalText string             `json:"total_text"`
}

func newCartResponse(store CartStore, converter *currency.Converter) cartResponse {
	items := store.Items()
	lines := make([]cartLineResponse, 0, len(items))
	for _, item := range items {
		lineTotal := item.LineTotal()
		lines = append(lines, cartLineResponse{
			LineItem:      item,
			LineTotal:     lineTotal,
			LineTotalText: converter.FormatBase(lineTotal),
		})
	}
	total := store.Total()
	return cartResponse{
		Items:     lines,
		ItemCount: store.ItemCount(),
		Total:     total,
		TotalText: converter.FormatBase(total),
	}
}

// GetCart returns the cart with display totals.
func GetCart(store CartStore, converter *currency.Converter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, newCartResponse(store, converter))
	}
}

// UpdateCartItem sets a line's quantity; zero or less removes the line.
func UpdateCartItem(store CartStore, converter *currency.Converter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		variantID, err := validators.ParsePathID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.UpdateQuantity(r.Context(), variantID, *payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store, converter))
	}
}

// RemoveCartItem drops a line from the cart.
func RemoveCartItem(store CartStore, converter *currency.Converter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		variantID, err := validators.ParsePathID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.RemoveItem(r.Context(), variantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store, converter))
	}
}

// ClearCart empties the cart.
func ClearCart(store CartStore, converter *currency.Converter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		if err := store.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store, converter))
	}
}
