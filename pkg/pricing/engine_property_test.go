//go:build property
// +build property

package pricing

import (
	"context"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/catalog"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

func genRefs() gopter.Gen {
	return gen.SliceOf(gen.Struct(
		reflect.TypeOf(protocol.ItemRef{}),
		map[string]gopter.Gen{
			"ID":       gen.OneConstOf("item_001", "item_002", "item_003", "item_404", "item_999"),
			"Quantity": gen.IntRange(0, 50),
		},
	))
}

// TestQuoteBreakupSums verifies the quote invariants for arbitrary orders.
// Property: total == subtotal + delivery + tax, tax == round(subtotal * 0.18)
func TestQuoteBreakupSums(t *testing.T) {
	engine := NewEngine(catalog.NewMemoryRepository(catalog.DefaultItems()...), nil)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("breakup lines sum to the total", prop.ForAll(
		func(refs []protocol.ItemRef, cityName string) bool {
			q := engine.Quote(context.Background(), refs, &protocol.FulfillmentRef{Cities: []string{cityName}})

			if !q.Total.Equal(q.Subtotal.Add(q.Delivery).Add(q.Tax)) {
				return false
			}
			if !q.Tax.Equal(q.Subtotal.Mul(TaxRate).Round(2)) {
				return false
			}
			sum := decimal.Zero
			for i, line := range q.Lines {
				if line.Quantity != refs[i].Quantity || line.Item.ID != refs[i].ID {
					return false
				}
				sum = sum.Add(line.Total)
			}
			return sum.Equal(q.Subtotal)
		},
		genRefs(),
		gen.OneConstOf("Delhi", "mumbai", "PUNE", "Kolkata", ""),
	))

	properties.TestingRun(t)
}

// TestDeliveryChargeRange verifies delivery is always one of the tiers.
// Property: DeliveryCharge(any city) in {50, 60, 65, 70}
func TestDeliveryChargeRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	allowed := map[string]bool{"50.00": true, "60.00": true, "65.00": true, "70.00": true}
	properties.Property("delivery charge is a known tier", prop.ForAll(
		func(cities []string) bool {
			return allowed[Format(DeliveryCharge(&protocol.FulfillmentRef{Cities: cities}))]
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}
