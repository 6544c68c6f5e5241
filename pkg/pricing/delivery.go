package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/catalog"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

var (
	// BaseDeliveryCharge applies to every order, with or without a
	// fulfillment.
	BaseDeliveryCharge = decimal.New(5000, -2)

	// cityTiers maps folded city names to the amount added to the base.
	cityTiers = map[string]decimal.Decimal{
		"mumbai":    decimal.New(2000, -2),
		"bangalore": decimal.New(2000, -2),
		"chennai":   decimal.New(2000, -2),
		"delhi":     decimal.New(1000, -2),
		"pune":      decimal.New(1500, -2),
		"hyderabad": decimal.New(1500, -2),
	}
)

// DeliveryCharge prices delivery from the first named location city. No
// fulfillment, no named city or an unlisted city pays the base charge.
func DeliveryCharge(f *protocol.FulfillmentRef) decimal.Decimal {
	city := f.FirstCity()
	if city == "" {
		return BaseDeliveryCharge
	}
	return BaseDeliveryCharge.Add(CitySurcharge(city))
}

// CitySurcharge returns the amount a city adds to the base charge.
func CitySurcharge(city string) decimal.Decimal {
	if add, ok := cityTiers[catalog.Fold(city)]; ok {
		return add
	}
	return decimal.Zero
}
