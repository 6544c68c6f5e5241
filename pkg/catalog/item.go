// Package catalog provides read-only access to the items a seller offers.
//
// Business logic depends only on Repository. Backends:
//   - MemoryRepository: immutable in-process catalog
//   - SQLRepository: sqlite (lite mode) or postgres, one JSON document per item
//   - CachedRepository: Redis read-through cache in front of another Repository
package catalog

import (
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when an item does not name one.
const DefaultCurrency = "INR"

// Fulfillment describes where and how fast an item can be delivered.
type Fulfillment struct {
	Type           string          `json:"type"`
	Locations      []string        `json:"locations"`
	DeliveryTime   string          `json:"delivery_time,omitempty"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
}

// ReturnPolicy describes an item's return terms.
type ReturnPolicy struct {
	Returnable   bool   `json:"returnable" yaml:"returnable"`
	ReturnWindow string `json:"return_window,omitempty" yaml:"return_window,omitempty"`
	RefundPolicy string `json:"refund_policy,omitempty" yaml:"refund_policy,omitempty"`
}

// Seller carries the seller's public rating.
type Seller struct {
	Name    string  `json:"name" yaml:"name"`
	Rating  float64 `json:"rating" yaml:"rating"`
	Reviews int     `json:"reviews" yaml:"reviews"`
}

// Item is a catalog entry.
type Item struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	Unit         string          `json:"unit"`
	Description  string          `json:"description"`
	Brand        string          `json:"brand"`
	Images       []string        `json:"images"`
	Fulfillment  Fulfillment     `json:"fulfillment"`
	ReturnPolicy *ReturnPolicy   `json:"return_policy,omitempty"`
	Seller       *Seller         `json:"seller,omitempty"`

	// Placeholder marks an item synthesized for an unknown id.
	Placeholder bool `json:"-"`
}

// Placeholder is the zero-priced stand-in returned for ids the catalog does
// not know.
func Placeholder(id string) Item {
	return Item{
		ID:          id,
		Name:        "Unknown Item",
		Category:    "General",
		Price:       decimal.Zero,
		Currency:    DefaultCurrency,
		Unit:        "piece",
		Description: "Item details not available",
		Brand:       "Unknown",
		Images:      []string{},
		Placeholder: true,
	}
}

// Clone returns a deep copy so callers can never mutate shared catalog data.
func (it Item) Clone() Item {
	out := it
	out.Images = slices.Clone(it.Images)
	out.Fulfillment.Locations = slices.Clone(it.Fulfillment.Locations)
	if it.ReturnPolicy != nil {
		rp := *it.ReturnPolicy
		out.ReturnPolicy = &rp
	}
	if it.Seller != nil {
		s := *it.Seller
		out.Seller = &s
	}
	return out
}

// ServesCity reports whether city is among the item's delivery locations.
func (it Item) ServesCity(city string) bool {
	for _, loc := range it.Fulfillment.Locations {
		if EqualFold(loc, city) {
			return true
		}
	}
	return false
}
