package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/catalog"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/responder"
)

// ProviderProfile describes the seller: its storefront presentation and the
// items used to seed an empty catalog.
type ProviderProfile struct {
	Catalog         DescriptorConfig `yaml:"catalog" json:"catalog"`
	Provider        ProviderConfig   `yaml:"provider" json:"provider"`
	Location        LocationConfig   `yaml:"location" json:"location"`
	FulfillmentID   string           `yaml:"fulfillment_id" json:"fulfillment_id"`
	DeliveryPartner string           `yaml:"delivery_partner" json:"delivery_partner"`
	DeliveryRating  float64          `yaml:"delivery_rating" json:"delivery_rating"`
	TrackingBaseURL string           `yaml:"tracking_base_url" json:"tracking_base_url"`
	Items           []ItemConfig     `yaml:"items" json:"items"`
}

// DescriptorConfig is a name with optional short and long descriptions.
type DescriptorConfig struct {
	Name      string `yaml:"name" json:"name"`
	ShortDesc string `yaml:"short_desc,omitempty" json:"short_desc,omitempty"`
	LongDesc  string `yaml:"long_desc,omitempty" json:"long_desc,omitempty"`
}

// ProviderConfig identifies the provider.
type ProviderConfig struct {
	ID               string `yaml:"id" json:"id"`
	DescriptorConfig `yaml:",inline"`
}

// LocationConfig is the store location.
type LocationConfig struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Locality string `yaml:"locality" json:"locality"`
	City     string `yaml:"city" json:"city"`
	State    string `yaml:"state" json:"state"`
	Country  string `yaml:"country" json:"country"`
}

// ItemConfig is a catalog item as written in the profile. Money is kept as
// text so that values like 120.00 are never parsed as floats.
type ItemConfig struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Category    string   `yaml:"category" json:"category"`
	Price       string   `yaml:"price" json:"price"`
	Currency    string   `yaml:"currency,omitempty" json:"currency,omitempty"`
	Unit        string   `yaml:"unit" json:"unit"`
	Description string   `yaml:"description" json:"description"`
	Brand       string   `yaml:"brand" json:"brand"`
	Images      []string `yaml:"images,omitempty" json:"images,omitempty"`
	Fulfillment struct {
		Type           string   `yaml:"type" json:"type"`
		Locations      []string `yaml:"locations" json:"locations"`
		DeliveryTime   string   `yaml:"delivery_time,omitempty" json:"delivery_time,omitempty"`
		DeliveryCharge string   `yaml:"delivery_charge,omitempty" json:"delivery_charge,omitempty"`
	} `yaml:"fulfillment" json:"fulfillment"`
	ReturnPolicy *catalog.ReturnPolicy `yaml:"return_policy,omitempty" json:"return_policy,omitempty"`
	Seller       *catalog.Seller       `yaml:"seller,omitempty" json:"seller,omitempty"`
}

// LoadProviderProfile reads a YAML provider profile from path.
func LoadProviderProfile(path string) (*ProviderProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load provider profile %q: %w", path, err)
	}

	var profile ProviderProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse provider profile %q: %w", path, err)
	}
	if _, err := profile.CatalogItems(); err != nil {
		return nil, fmt.Errorf("provider profile %q: %w", path, err)
	}
	return &profile, nil
}

// Storefront overlays the profile on responder.DefaultStorefront. Empty
// profile fields keep their defaults.
func (p *ProviderProfile) Storefront() responder.Storefront {
	s := responder.DefaultStorefront()
	if p == nil {
		return s
	}
	if p.Catalog.Name != "" {
		s.CatalogDescriptor = protocol.Descriptor{Name: p.Catalog.Name, ShortDesc: p.Catalog.ShortDesc, LongDesc: p.Catalog.LongDesc}
	}
	if p.Provider.ID != "" {
		s.ProviderID = p.Provider.ID
	}
	if p.Provider.Name != "" {
		s.ProviderName = protocol.Descriptor{Name: p.Provider.Name, ShortDesc: p.Provider.ShortDesc, LongDesc: p.Provider.LongDesc}
	}
	if p.Location.ID != "" {
		s.Location = protocol.Location{
			ID:         p.Location.ID,
			Descriptor: &protocol.Descriptor{Name: p.Location.Name},
			Address: &protocol.Address{
				Locality: p.Location.Locality,
				City:     p.Location.City,
				State:    p.Location.State,
				Country:  p.Location.Country,
			},
		}
	}
	if p.FulfillmentID != "" {
		s.FulfillmentID = p.FulfillmentID
	}
	if p.DeliveryPartner != "" {
		s.DeliveryPartner = p.DeliveryPartner
	}
	if p.DeliveryRating > 0 {
		s.DeliveryRating = p.DeliveryRating
	}
	if p.TrackingBaseURL != "" {
		s.TrackingBaseURL = p.TrackingBaseURL
	}
	return s
}

// CatalogItems converts the profile items, or returns catalog.DefaultItems
// when the profile lists none.
func (p *ProviderProfile) CatalogItems() ([]catalog.Item, error) {
	if p == nil || len(p.Items) == 0 {
		return catalog.DefaultItems(), nil
	}
	out := make([]catalog.Item, 0, len(p.Items))
	seen := make(map[string]bool, len(p.Items))
	for i, ic := range p.Items {
		if strings.TrimSpace(ic.ID) == "" {
			return nil, fmt.Errorf("items[%d]: id is required", i)
		}
		if seen[ic.ID] {
			return nil, fmt.Errorf("items[%d]: duplicate id %q", i, ic.ID)
		}
		seen[ic.ID] = true

		price, err := decimal.NewFromString(ic.Price)
		if err != nil {
			return nil, fmt.Errorf("items[%d] %s: price %q: %w", i, ic.ID, ic.Price, err)
		}
		charge := decimal.Zero
		if ic.Fulfillment.DeliveryCharge != "" {
			if charge, err = decimal.NewFromString(ic.Fulfillment.DeliveryCharge); err != nil {
				return nil, fmt.Errorf("items[%d] %s: delivery_charge: %w", i, ic.ID, err)
			}
		}
		currency := ic.Currency
		if currency == "" {
			currency = catalog.DefaultCurrency
		}
		out = append(out, catalog.Item{
			ID:          ic.ID,
			Name:        ic.Name,
			Category:    ic.Category,
			Price:       price,
			Currency:    currency,
			Unit:        ic.Unit,
			Description: ic.Description,
			Brand:       ic.Brand,
			Images:      ic.Images,
			Fulfillment: catalog.Fulfillment{
				Type:           ic.Fulfillment.Type,
				Locations:      ic.Fulfillment.Locations,
				DeliveryTime:   ic.Fulfillment.DeliveryTime,
				DeliveryCharge: charge,
			},
			ReturnPolicy: ic.ReturnPolicy,
			Seller:       ic.Seller,
		})
	}
	return out, nil
}
