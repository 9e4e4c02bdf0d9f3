package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gearstore/internal/cart"
	"github.com/angelmondragon/gearstore/pkg/currency"
)

var loyaltyDivisor = decimal.NewFromInt(10)

// Summary is the order total shown beside the form. Subtotal is in the base
// currency; the other amounts are in the display currency.
type Summary struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	SubtotalDisplay decimal.Decimal `json:"subtotal_display"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	Total           decimal.Decimal `json:"total"`
	LoyaltyPoints   int64           `json:"loyalty_points"`
	ZoneSelected    bool            `json:"zone_selected"`

	SubtotalText    string `json:"subtotal_text"`
	DeliveryFeeText string `json:"delivery_fee_text"`
	TotalText       string `json:"total_text"`
}

// Summarize totals items for zoneID. Loyalty points, one per ten base units,
// are only shown to authenticated shoppers.
func Summarize(items []cart.LineItem, zoneID string, authenticated bool, converter *currency.Converter) Summary {
	if converter == nil {
		converter = currency.Default()
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	display := converter.Convert(subtotal)

	summary := Summary{
		Subtotal:        subtotal,
		SubtotalDisplay: display,
		DeliveryFee:     decimal.Zero,
	}
	if zone, ok := LookupZone(zoneID); ok {
		summary.DeliveryFee = zone.FeeAmount()
		summary.ZoneSelected = true
	}
	summary.Total = display.Add(summary.DeliveryFee)
	if authenticated {
		summary.LoyaltyPoints = subtotal.Div(loyaltyDivisor).Floor().IntPart()
	}

	summary.SubtotalText = converter.Format(summary.SubtotalDisplay)
	summary.DeliveryFeeText = converter.Format(summary.DeliveryFee)
	summary.TotalText = converter.Format(summary.Total)
	return summary
}
