package catalog

import "github.com/shopspring/decimal"

// DefaultItems is the built-in demo catalog used when no profile supplies
// one.
func DefaultItems() []Item {
	return []Item{
		{
			ID:          "item_001",
			Name:        "Organic Basmati Rice",
			Category:    "Foodgrains",
			Price:       decimal.RequireFromString("120.00"),
			Currency:    DefaultCurrency,
			Unit:        "kg",
			Description: "Premium quality organic basmati rice",
			Brand:       "Organic Valley",
			Images:      []string{"https://example.com/rice1.jpg"},
			Fulfillment: Fulfillment{
				Type:           "Delivery",
				Locations:      []string{"Delhi", "Mumbai", "Bangalore"},
				DeliveryTime:   "2-3 days",
				DeliveryCharge: decimal.RequireFromString("50.00"),
			},
			ReturnPolicy: &ReturnPolicy{Returnable: true, ReturnWindow: "7 days", RefundPolicy: "Full refund for damaged items"},
			Seller:       &Seller{Name: "Organic Valley Farms", Rating: 4.5, Reviews: 1250},
		},
		{
			ID:          "item_002",
			Name:        "Fresh Apples",
			Category:    "Fruits",
			Price:       decimal.RequireFromString("180.00"),
			Currency:    DefaultCurrency,
			Unit:        "kg",
			Description: "Fresh red apples from Kashmir",
			Brand:       "Kashmir Fresh",
			Images:      []string{"https://example.com/apples1.jpg"},
			Fulfillment: Fulfillment{
				Type:           "Delivery",
				Locations:      []string{"Delhi", "Punjab", "Haryana"},
				DeliveryTime:   "1-2 days",
				DeliveryCharge: decimal.RequireFromString("40.00"),
			},
			ReturnPolicy: &ReturnPolicy{Returnable: true, ReturnWindow: "3 days", RefundPolicy: "Replacement for damaged items"},
			Seller:       &Seller{Name: "Kashmir Fresh Fruits", Rating: 4.3, Reviews: 890},
		},
		{
			ID:          "item_003",
			Name:        "Dairy Milk Chocolate",
			Category:    "Snacks",
			Price:       decimal.RequireFromString("50.00"),
			Currency:    DefaultCurrency,
			Unit:        "pack",
			Description: "Classic dairy milk chocolate bar",
			Brand:       "Cadbury",
			Images:      []string{"https://example.com/chocolate1.jpg"},
			Fulfillment: Fulfillment{
				Type:           "Delivery",
				Locations:      []string{"Delhi", "Mumbai", "Chennai"},
				DeliveryTime:   "1-2 days",
				DeliveryCharge: decimal.RequireFromString("30.00"),
			},
			ReturnPolicy: &ReturnPolicy{Returnable: true, ReturnWindow: "7 days", RefundPolicy: "Full refund for damaged items"},
			Seller:       &Seller{Name: "Cadbury India", Rating: 4.7, Reviews: 2100},
		},
	}
}
