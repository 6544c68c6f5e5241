package protocol

// ItemRef is a normalized reference to a catalog item.
type ItemRef struct {
	ID       string
	Quantity int
}

// FulfillmentRef is the part of a fulfillment that pricing depends on.
// Cities keeps, in request order, the city name of every location that
// sent one. A blank name is kept as "".
type FulfillmentRef struct {
	Type   string
	Cities []string
}

// FirstCity returns the city of the first location that sent a name, or "".
func (f *FulfillmentRef) FirstCity() string {
	if f == nil || len(f.Cities) == 0 {
		return ""
	}
	return f.Cities[0]
}

// NewFulfillmentRef extracts a FulfillmentRef, returning nil when f is nil.
func NewFulfillmentRef(f *Fulfillment) *FulfillmentRef {
	if f == nil {
		return nil
	}
	ref := &FulfillmentRef{Type: f.Type}
	for _, loc := range f.Locations {
		if loc.City.HasName() {
			ref.Cities = append(ref.Cities, loc.CityName())
		}
	}
	return ref
}

// SearchParams are the validated inputs of a search.
type SearchParams struct {
	Domain          string
	Query           string
	Category        string
	City            string
	State           string
	Country         string
	Fulfillment     *FulfillmentRef
	FinderFeeType   string
	FinderFeeAmount string
}

// OrderParams are the validated inputs of select, init, update, cancel,
// track and status.
type OrderParams struct {
	Domain               string
	OrderID              string
	Items                []ItemRef
	Fulfillment          *FulfillmentRef
	Payment              *Payment
	Billing              *Billing
	Customer             *Customer
	CancellationReasonID string
	UpdateTarget         string
}
