package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/storage"
)

// PendingOrderKey is the durable entry bridging payment initiation and verification.
const PendingOrderKey = "pending_order"

// PendingOrder is written just before the gateway handoff and removed once
// the reference verifies successfully.
type PendingOrder struct {
	Reference    string          `json:"reference"`
	OrderID      string          `json:"order_id"`
	Amount       decimal.Decimal `json:"amount"`
	CustomerInfo Form            `json:"customer_info"`
	CreatedAt    time.Time       `json:"created_at"`
}

func loadPending(ctx context.Context, store storage.Storage) (*PendingOrder, error) {
	raw, err := store.Get(ctx, PendingOrderKey)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read pending order")
	}
	var pending PendingOrder
	if err := json.Unmarshal([]byte(raw), &pending); err != nil || pending.Reference == "" {
		return nil, nil
	}
	return &pending, nil
}

func savePending(ctx context.Context, store storage.Storage, pending PendingOrder) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode pending order")
	}
	if err := store.Set(ctx, PendingOrderKey, string(payload)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist pending order")
	}
	return nil
}

func deletePending(ctx context.Context, store storage.Storage) error {
	if err := store.Delete(ctx, PendingOrderKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete pending order")
	}
	return nil
}
