package checkout

import "github.com/shopspring/decimal"

// Zone is a delivery bucket with a flat fee in the display currency.
type Zone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Fee  int64  `json:"fee"`
}

// FeeAmount returns the fee as a decimal for totals.
func (z Zone) FeeAmount() decimal.Decimal {
	return decimal.NewFromInt(z.Fee)
}

var deliveryZones = []Zone{
	{ID: "lagos-mainland", Name: "Lagos Mainland", Fee: 2000},
	{ID: "lagos-island", Name: "Lagos Island", Fee: 2500},
	{ID: "abuja", Name: "Abuja", Fee: 3000},
	{ID: "port-harcourt", Name: "Port Harcourt", Fee: 3500},
	{ID: "ibadan", Name: "Ibadan", Fee: 2500},
	{ID: "kano", Name: "Kano", Fee: 4000},
	{ID: "other", Name: "Other Cities", Fee: 4500},
}

// Zones returns the delivery zones in display order.
func Zones() []Zone {
	out := make([]Zone, len(deliveryZones))
	copy(out, deliveryZones)
	return out
}

// LookupZone resolves a zone id. The boolean is false for an empty or unknown id.
func LookupZone(id string) (Zone, bool) {
	for _, zone := range deliveryZones {
		if zone.ID == id {
			return zone, true
		}
	}
	return Zone{}, false
}

// ComputeDeliveryFee returns the flat fee for id, or 0 when no known zone is selected.
func ComputeDeliveryFee(id string) int64 {
	zone, ok := LookupZone(id)
	if !ok {
		return 0
	}
	return zone.Fee
}
