package cart

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/storage/memory"
)

var jersey = ProductSnapshot{ID: 12, Name: "Home Jersey", Team: "Arsenal"}

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newStore(t *testing.T, opts ...Option) (*Store, *memory.Store) {
	t.Helper()
	backing := memory.New()
	store, err := NewStore(backing, logger.Nop(), opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	store.Load(context.Background())
	return store, backing
}

func TestAddItemMergesAndKeepsFirstPrice(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	if err := store.AddItem(ctx, jersey, 101, "M", 2, price("25")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddItem(ctx, jersey, 101, "M", 3, price("30")); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("expected one line, got %d", len(items))
	}
	if items[0].Quantity != 5 || !items[0].UnitPrice.Equal(price("25")) {
		t.Fatalf("unexpected line %+v", items[0])
	}
	if !store.Total().Equal(price("125")) {
		t.Fatalf("unexpected total %s", store.Total())
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	cases := []struct {
		name      string
		variantID int64
		quantity  int
		price     decimal.Decimal
	}{
		{"zero quantity", 1, 0, price("1")},
		{"negative quantity", 1, -2, price("1")},
		{"missing variant", 0, 1, price("1")},
		{"negative price", 1, 1, price("-1")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.AddItem(ctx, jersey, tc.variantID, "M", tc.quantity, tc.price)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if !store.IsEmpty() {
		t.Fatal("rejected adds must not change the cart")
	}
}

func TestAddThenRemoveRestoresTotal(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	if err := store.AddItem(ctx, jersey, 101, "M", 1, price("25")); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := store.Total()

	if err := store.AddItem(ctx, jersey, 102, "XL", 2, price("27.5")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.RemoveItem(ctx, 102); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !store.Total().Equal(before) {
		t.Fatalf("total %s should return to %s", store.Total(), before)
	}
	if err := store.RemoveItem(ctx, 999); err != nil {
		t.Fatalf("removing an absent line should be a no-op: %v", err)
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	a, _ := newStore(t)
	b, _ := newStore(t)
	for _, store := range []*Store{a, b} {
		if err := store.AddItem(ctx, jersey, 101, "M", 1, price("25")); err != nil {
			t.Fatalf("add: %v", err)
		}
		if err := store.AddItem(ctx, jersey, 102, "L", 4, price("25")); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if err := a.UpdateQuantity(ctx, 102, 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := b.RemoveItem(ctx, 102); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(a.Items()) != len(b.Items()) || a.ItemCount() != b.ItemCount() {
		t.Fatalf("update to zero should equal remove: %+v vs %+v", a.Items(), b.Items())
	}

	if err := a.UpdateQuantity(ctx, 101, 7); err != nil {
		t.Fatalf("update: %v", err)
	}
	if a.ItemCount() != 7 {
		t.Fatalf("expected item count 7, got %d", a.ItemCount())
	}
}

func TestItemCountSumsQuantities(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	_ = store.AddItem(ctx, jersey, 101, "M", 2, price("10"))
	_ = store.AddItem(ctx, jersey, 102, "L", 3, price("10"))
	if store.ItemCount() != 5 {
		t.Fatalf("expected 5, got %d", store.ItemCount())
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !store.IsEmpty() || !store.Total().IsZero() || store.ItemCount() != 0 {
		t.Fatal("expected empty cart after clear")
	}
}

func TestRandomSequencesKeepOneLinePerVariant(t *testing.T) {
	ctx := context.Background()
	store, backing := newStore(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		variant := int64(rng.Intn(5) + 1)
		switch rng.Intn(3) {
		case 0:
			_ = store.AddItem(ctx, jersey, variant, "M", rng.Intn(3)+1, price("9.99"))
		case 1:
			_ = store.RemoveItem(ctx, variant)
		case 2:
			_ = store.UpdateQuantity(ctx, variant, rng.Intn(4)-1)
		}

		seen := map[int64]bool{}
		for _, item := range store.Items() {
			if seen[item.VariantID] {
				t.Fatalf("step %d: duplicate line for variant %d", i, item.VariantID)
			}
			if item.Quantity < 1 {
				t.Fatalf("step %d: line with quantity %d", i, item.Quantity)
			}
			seen[item.VariantID] = true
		}

		raw, _ := backing.Get(ctx, StorageKey)
		var persisted []LineItem
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
				t.Fatalf("step %d: unmarshal persisted cart: %v", i, err)
			}
		}
		assertSameLines(t, persisted, store.Items())
	}
}

func TestPersistAndRehydrate(t *testing.T) {
	ctx := context.Background()
	store, backing := newStore(t)
	_ = store.AddItem(ctx, jersey, 101, "M", 2, price("25.00"))
	_ = store.AddItem(ctx, ProductSnapshot{ID: 13, Name: "Scarf"}, 201, "One Size", 1, price("12.49"))

	reloaded, err := NewStore(backing, logger.Nop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	reloaded.Load(ctx)
	assertSameLines(t, reloaded.Items(), store.Items())
}

func TestLoadFailsOpen(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"malformed":  `{"not":"an array"`,
		"wrong type": `{"variant_id":1}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			backing := memory.New()
			_ = backing.Set(ctx, StorageKey, raw)
			store, _ := NewStore(backing, logger.Nop())
			store.Load(ctx)
			if !store.IsEmpty() {
				t.Fatalf("expected empty cart, got %+v", store.Items())
			}
		})
	}
}

func TestLoadNormalizesDuplicates(t *testing.T) {
	ctx := context.Background()
	backing := memory.New()
	_ = backing.Set(ctx, StorageKey, `[
		{"variant_id":1,"quantity":2,"unit_price":"5"},
		{"variant_id":1,"quantity":1,"unit_price":"9"},
		{"variant_id":2,"quantity":0,"unit_price":"5"}
	]`)
	store, _ := NewStore(backing, logger.Nop())
	store.Load(ctx)

	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 3 || !items[0].UnitPrice.Equal(price("5")) {
		t.Fatalf("unexpected normalized items %+v", items)
	}
}

type flakyStorage struct {
	*memory.Store
	fail bool
}

func (f *flakyStorage) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	backing := &flakyStorage{Store: memory.New()}
	store, _ := NewStore(backing, logger.Nop())
	_ = store.AddItem(ctx, jersey, 101, "M", 1, price("25"))
	before, _ := backing.Get(ctx, StorageKey)

	backing.fail = true
	err := store.AddItem(ctx, jersey, 101, "M", 4, price("25"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if err := store.Clear(ctx); err == nil {
		t.Fatal("expected clear to fail")
	}

	if line, _ := store.Find(101); line.Quantity != 1 {
		t.Fatalf("memory changed despite failed write: %+v", line)
	}
	after, _ := backing.Get(ctx, StorageKey)
	if after != before {
		t.Fatalf("storage changed: %s -> %s", before, after)
	}
}

type countingObserver map[string]int

func (c countingObserver) CartMutated(op string) {
	c[op]++
}

func TestObserverSeesCompletedMutationsOnly(t *testing.T) {
	ctx := context.Background()
	observer := countingObserver{}
	store, _ := newStore(t, WithObserver(observer))

	_ = store.AddItem(ctx, jersey, 101, "M", 1, price("25"))
	_ = store.AddItem(ctx, jersey, 101, "M", 0, price("25"))
	_ = store.RemoveItem(ctx, 555)
	_ = store.UpdateQuantity(ctx, 101, 3)

	if observer[opAdd] != 1 || observer[opRemove] != 0 || observer[opUpdate] != 1 {
		t.Fatalf("unexpected observations %v", observer)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	_ = store.AddItem(ctx, jersey, 101, "M", 1, price("25"))

	items := store.Items()
	items[0].Quantity = 99
	if line, _ := store.Find(101); line.Quantity != 1 {
		t.Fatal("callers must not be able to mutate the cart through Items")
	}
}

func assertSameLines(t *testing.T, got, want []LineItem) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("line count mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.VariantID != w.VariantID || g.Quantity != w.Quantity || g.Size != w.Size ||
			g.Product != w.Product || !g.UnitPrice.Equal(w.UnitPrice) {
			t.Fatalf("line %d mismatch: got %+v want %+v", i, g, w)
		}
	}
}
