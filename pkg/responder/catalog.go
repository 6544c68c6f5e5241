package responder

import (
	"slices"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/catalog"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/pricing"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

// Search builds the on_search envelope listing items under the configured
// provider.
func (b *Builder) Search(in *protocol.Context, items []catalog.Item) *protocol.Envelope {
	env := b.ack(in, protocol.ActionSearch)

	provider := b.provider()
	provider.Items = make([]protocol.Item, 0, len(items))
	for _, it := range items {
		provider.Items = append(provider.Items, b.catalogItem(it))
	}

	desc := b.store.CatalogDescriptor
	env.Message.Catalog = &protocol.Catalog{
		Descriptor: &desc,
		Providers:  []protocol.Provider{provider},
	}
	return env
}

func (b *Builder) provider() protocol.Provider {
	desc := b.store.ProviderName
	loc := b.store.Location
	if loc.Address != nil {
		addr := *loc.Address
		loc.Address = &addr
	}
	return protocol.Provider{
		ID:         b.store.ProviderID,
		Descriptor: &desc,
		Locations:  []protocol.Location{loc},
	}
}

func (b *Builder) catalogItem(it catalog.Item) protocol.Item {
	images := slices.Clone(it.Images)
	if images == nil {
		images = []string{}
	}
	currency := it.Currency
	if currency == "" {
		currency = catalog.DefaultCurrency
	}
	return protocol.Item{
		ID: it.ID,
		Descriptor: &protocol.Descriptor{
			Name:      it.Name,
			ShortDesc: it.Description,
			LongDesc:  it.Description,
			Brand:     it.Brand,
			Images:    images,
		},
		Price:         &protocol.Price{Currency: currency, Value: pricing.Format(it.Price)},
		CategoryID:    it.Category,
		FulfillmentID: b.store.FulfillmentID,
		LocationID:    b.store.Location.ID,
	}
}
