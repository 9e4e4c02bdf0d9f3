// Package shop is the catalog surface and the add-to-cart flow.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gearstore/internal/cart"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/storeapi"
)

const (
	selectSizeMessage = "Please select a size"
	addedTitle        = "Added to cart"
)

type catalogAPI interface {
	ListProducts(ctx context.Context, filter storeapi.ProductFilter) ([]storeapi.Product, error)
	GetProduct(ctx context.Context, id int64) (*storeapi.Product, error)
	ListCategories(ctx context.Context) ([]storeapi.Category, error)
}

type cartAdder interface {
	AddItem(ctx context.Context, product cart.ProductSnapshot, variantID int64, size string, quantity int, price decimal.Decimal) error
	Find(variantID int64) (cart.LineItem, bool)
}

type notifier interface {
	Info(title, description string) string
	Alert(title, description string) string
}

// Service defines the catalog operations used by the controllers.
type Service interface {
	List(ctx context.Context, filter storeapi.ProductFilter) ([]storeapi.Product, error)
	Get(ctx context.Context, id int64) (*storeapi.Product, error)
	Categories(ctx context.Context) ([]storeapi.Category, error)
	AddToCart(ctx context.Context, req AddToCartRequest) (*cart.LineItem, error)
}

// AddToCartRequest picks a product size and quantity.
type AddToCartRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type service struct {
	api      catalogAPI
	cart     cartAdder
	notifier notifier
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build a shop service.
type ServiceParams struct {
	API      catalogAPI
	Cart     cartAdder
	Notifier notifier
	Logger   *logger.Logger
}

// NewService constructs the shop service.
func NewService(params ServiceParams) (Service, error) {
	if params.API == nil {
		return nil, errors.New("catalog api is required")
	}
	if params.Cart == nil {
		return nil, errors.New("cart store is required")
	}
	if params.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{api: params.API, cart: params.Cart, notifier: params.Notifier, logg: logg}, nil
}

func (s *service) List(ctx context.Context, filter storeapi.ProductFilter) ([]storeapi.Product, error) {
	return s.api.ListProducts(ctx, filter)
}

func (s *service) Get(ctx context.Context, id int64) (*storeapi.Product, error) {
	return s.api.GetProduct(ctx, id)
}

func (s *service) Categories(ctx context.Context) ([]storeapi.Category, error) {
	return s.api.ListCategories(ctx)
}

// AddToCart resolves the size to a variant, checks stock against what is
// already in the cart and adds the line at the variant's current price.
func (s *service) AddToCart(ctx context.Context, req AddToCartRequest) (*cart.LineItem, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := s.api.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	variant, ok := product.VariantBySize(strings.TrimSpace(req.Size))
	if !ok {
		s.notifier.Alert(selectSizeMessage, "")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, selectSizeMessage).
			WithDetails(map[string]string{"size": selectSizeMessage})
	}

	inCart := 0
	if line, ok := s.cart.Find(variant.ID); ok {
		inCart = line.Quantity
	}
	if variant.Stock < inCart+req.Quantity {
		available := variant.Stock - inCart
		if available < 0 {
			available = 0
		}
		message := fmt.Sprintf("Only %d items available", available)
		s.notifier.Alert("Insufficient stock", message)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, message).
			WithDetails(map[string]int{"available": available})
	}

	snapshot := cart.ProductSnapshot{ID: product.ID, Name: product.Name, Team: product.Team, Image: product.Image}
	if err := s.cart.AddItem(ctx, snapshot, variant.ID, variant.Size, req.Quantity, product.PriceFor(variant)); err != nil {
		return nil, err
	}

	s.notifier.Info(addedTitle, fmt.Sprintf("%s (%s) x%d", product.Name, variant.Size, req.Quantity))
	ctx = s.logg.WithFields(ctx, map[string]any{"product_id": product.ID, "variant_id": variant.ID, "quantity": req.Quantity})
	s.logg.Info(ctx, "item added to cart")

	line, _ := s.cart.Find(variant.ID)
	return &line, nil
}
