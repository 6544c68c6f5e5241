package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Descriptor describes an item, provider, location or state.
type Descriptor struct {
	Name      string   `json:"name,omitempty"`
	Code      string   `json:"code,omitempty"`
	ShortDesc string   `json:"short_desc,omitempty"`
	LongDesc  string   `json:"long_desc,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// Price is a monetary value. Value is a decimal string such as "120.00".
type Price struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// Measure is the unit-qualified part of an item quantity.
type Measure struct {
	Unit  string `json:"unit"`
	Value int    `json:"value"`
}

// ItemQuantity is the selected quantity of an item. Inbound it may be a bare
// number, a numeric string, or an object with a count.
type ItemQuantity struct {
	Count   int      `json:"count"`
	Measure *Measure `json:"measure,omitempty"`
}

// UnmarshalJSON accepts 2, "2", {"count": 2} and {"count": "2"}.
func (q *ItemQuantity) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if trimmed[0] != '{' {
		n, err := parseCount(trimmed)
		if err != nil {
			return err
		}
		q.Count = n
		return nil
	}

	var raw struct {
		Count   json.RawMessage `json:"count"`
		Measure *struct {
			Unit  string          `json:"unit"`
			Value json.RawMessage `json:"value"`
		} `json:"measure"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	q.Count = 1
	if len(raw.Count) > 0 && string(raw.Count) != "null" {
		n, err := parseCount(raw.Count)
		if err != nil {
			return err
		}
		q.Count = n
	}
	if raw.Measure != nil {
		q.Measure = &Measure{Unit: raw.Measure.Unit}
		if len(raw.Measure.Value) > 0 && string(raw.Measure.Value) != "null" {
			if v, err := parseCount(raw.Measure.Value); err == nil {
				q.Measure.Value = v
			}
		}
	}
	return nil
}

// parseCount reads an integral count from a number or numeric string.
// Fractional and out-of-range values are rejected rather than truncated.
func parseCount(raw []byte) (int, error) {
	s := strings.TrimSpace(strings.Trim(string(raw), `"`))
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, &json.UnmarshalTypeError{Value: "quantity " + string(raw), Type: reflect.TypeOf(0)}
	}
	return int(f), nil
}

// SellerDetails summarizes the seller of an item.
type SellerDetails struct {
	Name    string  `json:"name"`
	Rating  float64 `json:"rating"`
	Reviews int     `json:"reviews"`
}

// ReturnPolicy describes whether and how an item can be returned.
type ReturnPolicy struct {
	Returnable   bool   `json:"returnable"`
	ReturnWindow string `json:"return_window,omitempty"`
	RefundPolicy string `json:"refund_policy,omitempty"`
}

// Item is an order or catalog line.
type Item struct {
	ID            string         `json:"id"`
	Descriptor    *Descriptor    `json:"descriptor,omitempty"`
	Price         *Price         `json:"price,omitempty"`
	CategoryID    string         `json:"category_id,omitempty"`
	FulfillmentID string         `json:"fulfillment_id,omitempty"`
	LocationID    string         `json:"location_id,omitempty"`
	Quantity      *ItemQuantity  `json:"quantity,omitempty"`
	SellerDetails *SellerDetails `json:"seller_details,omitempty"`
	ReturnPolicy  *ReturnPolicy  `json:"return_policy,omitempty"`
	Tags          []Tag          `json:"tags,omitempty"`
}

// NamedArea is a city, state or country reference inside a location filter.
type NamedArea struct {
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`

	// nameSent records a "name" key present on the wire, even when empty.
	nameSent bool
}

// UnmarshalJSON decodes the area and notes whether a non-null name was sent.
func (a *NamedArea) UnmarshalJSON(data []byte) error {
	type plain NamedArea
	var raw struct {
		plain
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = NamedArea(raw.plain)
	if raw.Name != nil {
		a.Name = *raw.Name
		a.nameSent = true
	}
	return nil
}

// HasName reports whether the area carries a name, blank or not.
func (a *NamedArea) HasName() bool {
	return a != nil && (a.nameSent || a.Name != "")
}

// Address is a postal address.
type Address struct {
	Door     string `json:"door,omitempty"`
	Building string `json:"building,omitempty"`
	Street   string `json:"street,omitempty"`
	Locality string `json:"locality,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country,omitempty"`
	AreaCode string `json:"area_code,omitempty"`
}

// Location is either a provider store location or a fulfillment filter.
type Location struct {
	ID         string      `json:"id,omitempty"`
	Descriptor *Descriptor `json:"descriptor,omitempty"`
	GPS        string      `json:"gps,omitempty"`
	Address    *Address    `json:"address,omitempty"`
	City       *NamedArea  `json:"city,omitempty"`
	State      *NamedArea  `json:"state,omitempty"`
	Country    *NamedArea  `json:"country,omitempty"`
}

// CityName returns the location's city name, or "" when none is given.
func (l Location) CityName() string {
	if l.City == nil {
		return ""
	}
	return strings.TrimSpace(l.City.Name)
}

// Stop is a pickup or drop point of a fulfillment.
type Stop struct {
	Type     string    `json:"type"`
	Location *Location `json:"location,omitempty"`
}

// FulfillmentState labels the delivery state.
type FulfillmentState struct {
	Descriptor *Descriptor `json:"descriptor,omitempty"`
}

// TimeRange is a start/end window.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EstimatedDelivery is the promised delivery time and window.
type EstimatedDelivery struct {
	Time  string     `json:"time"`
	Range *TimeRange `json:"range,omitempty"`
}

// Fulfillment describes how and where an order is delivered.
type Fulfillment struct {
	ID                string             `json:"id,omitempty"`
	Type              string             `json:"type,omitempty"`
	ProviderName      string             `json:"provider_name,omitempty"`
	Rating            float64            `json:"rating,omitempty"`
	State             *FulfillmentState  `json:"state,omitempty"`
	Tracking          bool               `json:"tracking,omitempty"`
	Customer          *Customer          `json:"customer,omitempty"`
	Locations         []Location         `json:"locations,omitempty"`
	Stops             []Stop             `json:"stops,omitempty"`
	EstimatedDelivery *EstimatedDelivery `json:"estimated_delivery,omitempty"`
}

// PaymentParams carries the payable amount.
type PaymentParams struct {
	Amount        string `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// PaymentTime labels a payment deadline.
type PaymentTime struct {
	Label     string `json:"label,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Payment describes how an order is paid.
type Payment struct {
	ID                      string         `json:"id,omitempty"`
	Type                    string         `json:"type,omitempty"`
	CollectedBy             string         `json:"collected_by,omitempty"`
	Params                  *PaymentParams `json:"params,omitempty"`
	Status                  string         `json:"status,omitempty"`
	Time                    *PaymentTime   `json:"time,omitempty"`
	BuyerAppFinderFeeType   string         `json:"@ondc/org/buyer_app_finder_fee_type,omitempty"`
	BuyerAppFinderFeeAmount string         `json:"@ondc/org/buyer_app_finder_fee_amount,omitempty"`
	Tags                    []Tag          `json:"tags,omitempty"`
}

// Billing identifies who is billed.
type Billing struct {
	Name    string   `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
	Email   string   `json:"email,omitempty"`
	Phone   string   `json:"phone,omitempty"`
}

// Person is a named individual.
type Person struct {
	Name string `json:"name,omitempty"`
}

// Contact holds reachability details.
type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Customer is the receiving party of an order.
type Customer struct {
	ID      string   `json:"id,omitempty"`
	Person  *Person  `json:"person,omitempty"`
	Contact *Contact `json:"contact,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// BreakupLine is one named component of a quote.
type BreakupLine struct {
	ItemID    string `json:"@ondc/org/item_id,omitempty"`
	TitleType string `json:"@ondc/org/title_type,omitempty"`
	Title     string `json:"title"`
	Price     Price  `json:"price"`
}

// Quote is the priced summary of an order. Breakup lines sum to Price.
type Quote struct {
	Price   Price         `json:"price"`
	Breakup []BreakupLine `json:"breakup"`
	TTL     string        `json:"ttl,omitempty"`
}

// Provider is a seller with its store locations and items.
type Provider struct {
	ID         string      `json:"id"`
	Descriptor *Descriptor `json:"descriptor,omitempty"`
	Locations  []Location  `json:"locations,omitempty"`
	Items      []Item      `json:"items,omitempty"`
}

// CancellationReason identifies why an order was cancelled.
type CancellationReason struct {
	ID string `json:"id"`
}

// Cancellation records who cancelled an order and why.
type Cancellation struct {
	CancelledBy string              `json:"cancelled_by,omitempty"`
	Reason      *CancellationReason `json:"reason,omitempty"`
}

// Order is the mutable body of select/init/update/cancel/status flows. The
// singular Fulfillment and Payment keys are accepted inbound; outbound
// orders use the plural slices.
type Order struct {
	ID           string        `json:"id,omitempty"`
	State        string        `json:"state,omitempty"`
	Provider     *Provider     `json:"provider,omitempty"`
	Items        []Item        `json:"items,omitempty"`
	Fulfillment  *Fulfillment  `json:"fulfillment,omitempty"`
	Fulfillments []Fulfillment `json:"fulfillments,omitempty"`
	Payment      *Payment      `json:"payment,omitempty"`
	Payments     []Payment     `json:"payments,omitempty"`
	Billing      *Billing      `json:"billing,omitempty"`
	Quote        *Quote        `json:"quote,omitempty"`
	Customer     *Customer     `json:"customer,omitempty"`
	Cancellation *Cancellation `json:"cancellation,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	UpdatedAt    string        `json:"updated_at,omitempty"`
}

// Catalog is the on_search payload.
type Catalog struct {
	Descriptor *Descriptor `json:"bpp/descriptor,omitempty"`
	Providers  []Provider  `json:"bpp/providers"`
}

// TagEntry is a code/value pair inside a Tag.
type TagEntry struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

// Tag groups protocol terms such as bap_terms.
type Tag struct {
	Code string     `json:"code"`
	List []TagEntry `json:"list,omitempty"`
}

// IntentItem narrows a search to an item or category.
type IntentItem struct {
	ID         string      `json:"id,omitempty"`
	CategoryID string      `json:"category_id,omitempty"`
	Descriptor *Descriptor `json:"descriptor,omitempty"`
}

// IntentCategory narrows a search to a category id.
type IntentCategory struct {
	ID         string      `json:"id,omitempty"`
	Descriptor *Descriptor `json:"descriptor,omitempty"`
}

// Intent is the search request body.
type Intent struct {
	Item        *IntentItem     `json:"item,omitempty"`
	Category    *IntentCategory `json:"category,omitempty"`
	Provider    *Provider       `json:"provider,omitempty"`
	Fulfillment *Fulfillment    `json:"fulfillment,omitempty"`
	Payment     *Payment        `json:"payment,omitempty"`
	Tags        []Tag           `json:"tags,omitempty"`
}
