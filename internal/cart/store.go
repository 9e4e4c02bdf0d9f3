// Package cart owns the shopper's line items and keeps the durable copy in
// step with memory after every mutation.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/storage"
)

// StorageKey is the durable entry holding the serialized cart.
const StorageKey = "cart"

const (
	opAdd    = "add_item"
	opRemove = "remove_item"
	opUpdate = "update_quantity"
	opClear  = "clear"
)

// ProductSnapshot is the product reference captured when a line is created.
type ProductSnapshot struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Team  string `json:"team,omitempty"`
	Image string `json:"image,omitempty"`
}

// LineItem is one variant in the cart. UnitPrice is fixed when the line is created.
type LineItem struct {
	Product   ProductSnapshot `json:"product"`
	VariantID int64           `json:"variant_id"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal is UnitPrice times Quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Observer is told about every completed mutation.
type Observer interface {
	CartMutated(operation string)
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers a mutation observer.
func WithObserver(observer Observer) Option {
	return func(s *Store) {
		s.observer = observer
	}
}

// Store is the in-memory cart. Memory is the source of truth once loaded;
// storage is only read back in Load.
type Store struct {
	mu       sync.Mutex
	store    storage.Storage
	logg     *logger.Logger
	observer Observer
	items    []LineItem
}

// NewStore builds an empty cart bound to the durable store. Call Load to rehydrate.
func NewStore(store storage.Storage, logg *logger.Logger, opts ...Option) (*Store, error) {
	if store == nil {
		return nil, errors.New("cart storage is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Store{store: store, logg: logg, items: []LineItem{}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Load replaces the in-memory cart with the durable copy. A missing,
// unreadable or malformed entry yields an empty cart.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []LineItem{}
	raw, err := s.store.Get(ctx, StorageKey)
	if storage.IsNotFound(err) {
		return
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "reading stored cart failed; starting empty")
		return
	}

	var stored []LineItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "stored cart is malformed; starting empty")
		return
	}
	s.items = normalize(stored)
	s.logg.Info(s.logg.WithField(ctx, "lines", len(s.items)), "cart rehydrated")
}

// AddItem merges into the line for variantID by summing quantities, keeping
// the existing price, or appends a new line. Stock is the caller's concern.
func (s *Store) AddItem(ctx context.Context, product ProductSnapshot, variantID int64, size string, quantity int, price decimal.Decimal) error {
	if variantID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id must be positive")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	return s.mutate(ctx, opAdd, func(items []LineItem) ([]LineItem, bool) {
		if idx := indexOf(items, variantID); idx >= 0 {
			items[idx].Quantity += quantity
			return items, true
		}
		return append(items, LineItem{
			Product:   product,
			VariantID: variantID,
			Size:      size,
			Quantity:  quantity,
			UnitPrice: price,
		}), true
	})
}

// RemoveItem drops the line for variantID. Removing an absent line is a no-op.
func (s *Store) RemoveItem(ctx context.Context, variantID int64) error {
	return s.mutate(ctx, opRemove, func(items []LineItem) ([]LineItem, bool) {
		idx := indexOf(items, variantID)
		if idx < 0 {
			return items, false
		}
		return append(items[:idx], items[idx+1:]...), true
	})
}

// UpdateQuantity sets the line's quantity; quantity <= 0 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, variantID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, variantID)
	}
	return s.mutate(ctx, opUpdate, func(items []LineItem) ([]LineItem, bool) {
		idx := indexOf(items, variantID)
		if idx < 0 || items[idx].Quantity == quantity {
			return items, false
		}
		items[idx].Quantity = quantity
		return items, true
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, opClear, func([]LineItem) ([]LineItem, bool) {
		return []LineItem{}, true
	})
}

// Total is the sum of line totals; zero for an empty cart.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.items)
}

// ItemCount is the sum of quantities, not the number of lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.items)
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Find returns the line for variantID.
func (s *Store) Find(variantID int64) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := indexOf(s.items, variantID); idx >= 0 {
		return s.items[idx], true
	}
	return LineItem{}, false
}

// mutate applies fn to a copy of the lines, persists the result and only then
// swaps it in. A failed write leaves memory and storage at the previous state.
func (s *Store) mutate(ctx context.Context, op string, fn func([]LineItem) ([]LineItem, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(clone(s.items))
	if !changed {
		return nil
	}

	payload, err := json.Marshal(next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.store.Set(ctx, StorageKey, string(payload)); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "operation", op), "persisting cart failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist cart")
	}

	s.items = next
	if s.observer != nil {
		s.observer.CartMutated(op)
	}
	return nil
}

func total(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

func indexOf(items []LineItem, variantID int64) int {
	for i, item := range items {
		if item.VariantID == variantID {
			return i
		}
	}
	return -1
}

func clone(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// normalize drops non-positive quantities and folds duplicate variants so a
// hand-edited or legacy durable copy still satisfies one line per variant.
func normalize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 || item.VariantID <= 0 {
			continue
		}
		if idx := indexOf(out, item.VariantID); idx >= 0 {
			out[idx].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}
