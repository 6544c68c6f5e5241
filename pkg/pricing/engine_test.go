package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/catalog"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

func newTestEngine() *Engine {
	return NewEngine(catalog.NewMemoryRepository(catalog.DefaultItems()...), nil)
}

func city(name string) *protocol.FulfillmentRef {
	return &protocol.FulfillmentRef{Type: "Delivery", Cities: []string{name}}
}

func TestQuote_DelhiTotals(t *testing.T) {
	q := newTestEngine().Quote(context.Background(), []protocol.ItemRef{
		{ID: "item_001", Quantity: 2},
		{ID: "item_002", Quantity: 1},
	}, city("Delhi"))

	assert.Equal(t, "420.00", Format(q.Subtotal))
	assert.Equal(t, "60.00", Format(q.Delivery))
	assert.Equal(t, "75.60", Format(q.Tax))
	assert.Equal(t, "555.60", Format(q.Total))
	assert.Equal(t, "INR", q.Currency)

	require.Len(t, q.Lines, 2)
	assert.Equal(t, "240.00", Format(q.Lines[0].Total))
	assert.Equal(t, "180.00", Format(q.Lines[1].Total))
}

func TestQuote_UnknownItemFallsBack(t *testing.T) {
	q := newTestEngine().Quote(context.Background(), []protocol.ItemRef{{ID: "item_999", Quantity: 3}}, nil)

	require.Len(t, q.Lines, 1)
	line := q.Lines[0]
	assert.Equal(t, "Unknown Item", line.Item.Name)
	assert.True(t, line.Item.Placeholder)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, "0.00", Format(line.UnitPrice))
	assert.Equal(t, "0.00", Format(q.Subtotal))
	assert.Equal(t, "50.00", Format(q.Total), "only the base delivery charge remains")
}

type brokenRepo struct{}

func (brokenRepo) Lookup(context.Context, string) (catalog.Item, error) {
	return catalog.Item{}, errors.New("db down")
}

func (brokenRepo) Filter(context.Context, catalog.Filter) ([]catalog.Item, error) {
	return nil, errors.New("db down")
}

func TestQuote_StoreErrorFallsBack(t *testing.T) {
	e := NewEngine(brokenRepo{}, nil)
	q := e.Quote(context.Background(), []protocol.ItemRef{{ID: "item_001", Quantity: 1}}, city("Pune"))
	require.Len(t, q.Lines, 1)
	assert.True(t, q.Lines[0].Item.Placeholder)
	assert.Equal(t, "65.00", Format(q.Total))

	_, err := e.Search(context.Background(), protocol.SearchParams{})
	assert.Error(t, err)
}

func TestDeliveryCharge_CityTiers(t *testing.T) {
	tests := []struct {
		city string
		want string
	}{
		{"mumbai", "70.00"},
		{"Bangalore", "70.00"},
		{"CHENNAI", "70.00"},
		{"delhi", "60.00"},
		{"Pune", "65.00"},
		{"hyderabad", "65.00"},
		{"Kolkata", "50.00"},
		{"Atlantis", "50.00"},
	}
	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(DeliveryCharge(city(tt.city))))
		})
	}
}

func TestDeliveryCharge_NoFulfillment(t *testing.T) {
	assert.Equal(t, "50.00", Format(DeliveryCharge(nil)))
	assert.Equal(t, "50.00", Format(DeliveryCharge(&protocol.FulfillmentRef{Type: "Delivery"})))
}

func TestDeliveryCharge_FirstNamedCityWins(t *testing.T) {
	f := &protocol.FulfillmentRef{Cities: []string{"Delhi", "Mumbai"}}
	assert.Equal(t, "60.00", Format(DeliveryCharge(f)))

	f = &protocol.FulfillmentRef{Cities: []string{"Kolkata", "Mumbai"}}
	assert.Equal(t, "50.00", Format(DeliveryCharge(f)), "an unlisted first city still wins")
}

func TestSearch(t *testing.T) {
	e := newTestEngine()
	items, err := e.Search(context.Background(), protocol.SearchParams{Category: "foodgrains", City: "Delhi"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "item_001", items[0].ID)

	items, err = e.Search(context.Background(), protocol.SearchParams{})
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.00", Format(decimal.Zero))
	assert.Equal(t, "120.50", Format(decimal.RequireFromString("120.5")))
	assert.Equal(t, "10.13", Format(decimal.RequireFromString("10.125")))
}
