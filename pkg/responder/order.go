package responder

import (
	"time"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/catalog"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/pricing"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

// Order lifecycle labels. They are static strings, not a tracked state.
const (
	StateCreated   = "Created"
	StateUpdated   = "Updated"
	StateCancelled = "Cancelled"
)

// Quote breakup titles.
const (
	TitleSubtotal = "Subtotal"
	TitleDelivery = "Delivery Charge"
	TitleTax      = "GST (18%)"
	TitleTotal    = "Total"
)

// Select builds on_select: priced items, fulfillment and quote.
func (b *Builder) Select(in *protocol.Context, p *protocol.OrderParams, q pricing.Quote) *protocol.Envelope {
	env := b.ack(in, protocol.ActionSelect)
	provider := b.provider()
	env.Message.Order = &protocol.Order{
		Provider:     &provider,
		Items:        b.orderItems(q),
		Fulfillments: []protocol.Fulfillment{b.fulfillment(p, false)},
		Quote:        b.quote(q),
	}
	return env
}

// Init builds on_init: the full draft order with payment, billing and
// customer.
func (b *Builder) Init(in *protocol.Context, p *protocol.OrderParams, q pricing.Quote) *protocol.Envelope {
	env := b.ack(in, protocol.ActionInit)
	env.Message.Order = b.fullOrder("order_"+b.newID(), StateCreated, p, q)
	return env
}

// Update builds on_update: the re-priced order.
func (b *Builder) Update(in *protocol.Context, p *protocol.OrderParams, q pricing.Quote) *protocol.Envelope {
	env := b.ack(in, protocol.ActionUpdate)
	env.Message.Order = b.fullOrder(b.orderID(p), StateUpdated, p, q)
	return env
}

// Status builds on_status for the referenced order.
func (b *Builder) Status(in *protocol.Context, p *protocol.OrderParams, q pricing.Quote) *protocol.Envelope {
	env := b.ack(in, protocol.ActionStatus)
	env.Message.Order = b.fullOrder(b.orderID(p), StateCreated, p, q)
	return env
}

// Cancel builds on_cancel with the cancellation reason.
func (b *Builder) Cancel(in *protocol.Context, p *protocol.OrderParams, q pricing.Quote) *protocol.Envelope {
	env := b.ack(in, protocol.ActionCancel)
	order := b.fullOrder(b.orderID(p), StateCancelled, p, q)
	order.Payments = nil
	order.Cancellation = &protocol.Cancellation{CancelledBy: b.cancelledBy(in)}
	if p.CancellationReasonID != "" {
		order.Cancellation.Reason = &protocol.CancellationReason{ID: p.CancellationReasonID}
	}
	env.Message.Order = order
	return env
}

// Track builds on_track pointing at the tracking page of the order.
func (b *Builder) Track(in *protocol.Context, p *protocol.OrderParams) *protocol.Envelope {
	env := b.ack(in, protocol.ActionTrack)
	id := b.orderID(p)
	env.Message.Tracking = &protocol.Tracking{
		ID:     id,
		Status: "active",
		URL:    b.store.TrackingBaseURL + id,
	}
	return env
}

func (b *Builder) orderID(p *protocol.OrderParams) string {
	if p != nil && p.OrderID != "" {
		return p.OrderID
	}
	return "order_" + b.newID()
}

func (b *Builder) cancelledBy(in *protocol.Context) string {
	if in != nil && in.BapID != "" {
		return in.BapID
	}
	return b.identity.FallbackBapID
}

func (b *Builder) fullOrder(id, state string, p *protocol.OrderParams, q pricing.Quote) *protocol.Order {
	ts := protocol.FormatTimestamp(b.now())
	provider := b.provider()
	billing := b.billing(p)
	return &protocol.Order{
		ID:           id,
		State:        state,
		Provider:     &provider,
		Items:        b.orderItems(q),
		Fulfillments: []protocol.Fulfillment{b.fulfillment(p, true)},
		Payments:     []protocol.Payment{b.payment(p, q)},
		Billing:      billing,
		Quote:        b.quote(q),
		Customer:     b.customer(p, billing),
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

func (b *Builder) orderItems(q pricing.Quote) []protocol.Item {
	items := make([]protocol.Item, 0, len(q.Lines))
	for _, line := range q.Lines {
		it := b.catalogItem(line.Item)
		it.Quantity = &protocol.ItemQuantity{
			Count:   line.Quantity,
			Measure: &protocol.Measure{Unit: line.Item.Unit, Value: line.Quantity},
		}
		if s := line.Item.Seller; s != nil {
			it.SellerDetails = &protocol.SellerDetails{Name: s.Name, Rating: s.Rating, Reviews: s.Reviews}
		}
		if rp := line.Item.ReturnPolicy; rp != nil {
			it.ReturnPolicy = &protocol.ReturnPolicy{
				Returnable:   rp.Returnable,
				ReturnWindow: rp.ReturnWindow,
				RefundPolicy: rp.RefundPolicy,
			}
		}
		items = append(items, it)
	}
	return items
}

func (b *Builder) quote(q pricing.Quote) *protocol.Quote {
	currency := q.Currency
	if currency == "" {
		currency = catalog.DefaultCurrency
	}
	price := func(v string) protocol.Price { return protocol.Price{Currency: currency, Value: v} }
	total := pricing.Format(q.Total)
	return &protocol.Quote{
		Price: price(total),
		Breakup: []protocol.BreakupLine{
			{Title: TitleSubtotal, TitleType: "subtotal", Price: price(pricing.Format(q.Subtotal))},
			{Title: TitleDelivery, TitleType: "delivery", Price: price(pricing.Format(q.Delivery))},
			{Title: TitleTax, TitleType: "tax", Price: price(pricing.Format(q.Tax))},
			{Title: TitleTotal, TitleType: "total", Price: price(total)},
		},
		TTL: "P1D",
	}
}

func (b *Builder) deliveryAddress(p *protocol.OrderParams) *protocol.Address {
	addr := &protocol.Address{Locality: "Customer Address", City: "Delhi", State: "Delhi", Country: "India"}
	if p != nil && p.Billing != nil && p.Billing.Address != nil {
		cp := *p.Billing.Address
		addr = &cp
	}
	if city := fulfillmentCity(p); city != "" {
		addr.City = city
	}
	return addr
}

func fulfillmentCity(p *protocol.OrderParams) string {
	if p == nil {
		return ""
	}
	return p.Fulfillment.FirstCity()
}

func (b *Builder) fulfillment(p *protocol.OrderParams, detailed bool) protocol.Fulfillment {
	ftype := "Delivery"
	if p != nil && p.Fulfillment != nil && p.Fulfillment.Type != "" {
		ftype = p.Fulfillment.Type
	}
	f := protocol.Fulfillment{
		ID:           b.store.FulfillmentID,
		Type:         ftype,
		ProviderName: b.store.DeliveryPartner,
		Tracking:     detailed,
	}
	if !detailed {
		return f
	}

	now := b.now()
	day := 24 * time.Hour
	billing := b.billing(p)
	f.Rating = b.store.DeliveryRating
	f.State = &protocol.FulfillmentState{Descriptor: &protocol.Descriptor{Name: "Order confirmed"}}
	f.Customer = &protocol.Customer{
		Person:  &protocol.Person{Name: billing.Name},
		Contact: &protocol.Contact{Phone: billing.Phone, Email: billing.Email},
	}
	f.Stops = []protocol.Stop{{
		Type:     "end",
		Location: &protocol.Location{Address: b.deliveryAddress(p)},
	}}
	f.EstimatedDelivery = &protocol.EstimatedDelivery{
		Time: protocol.FormatTimestamp(now.Add(2 * day)),
		Range: &protocol.TimeRange{
			Start: protocol.FormatTimestamp(now.Add(day)),
			End:   protocol.FormatTimestamp(now.Add(3 * day)),
		},
	}
	return f
}

func (b *Builder) payment(p *protocol.OrderParams, q pricing.Quote) protocol.Payment {
	pay := protocol.Payment{
		ID:          "payment_001",
		Type:        "ON-ORDER",
		CollectedBy: "BAP",
		Status:      "PENDING",
		Params: &protocol.PaymentParams{
			Amount:   pricing.Format(q.Total),
			Currency: q.Currency,
		},
		Time: &protocol.PaymentTime{Label: "Payment Due", Timestamp: protocol.FormatTimestamp(b.now())},
	}
	if p != nil && p.Payment != nil {
		pay.Type = firstNonEmpty(p.Payment.Type, pay.Type)
		pay.CollectedBy = firstNonEmpty(p.Payment.CollectedBy, pay.CollectedBy)
		pay.BuyerAppFinderFeeType = p.Payment.BuyerAppFinderFeeType
		pay.BuyerAppFinderFeeAmount = p.Payment.BuyerAppFinderFeeAmount
	}
	return pay
}

func (b *Builder) billing(p *protocol.OrderParams) *protocol.Billing {
	if p != nil && p.Billing != nil {
		cp := *p.Billing
		if cp.Address != nil {
			addr := *cp.Address
			cp.Address = &addr
		}
		return &cp
	}
	return &protocol.Billing{
		Name:    "Customer Name",
		Address: &protocol.Address{Locality: "Customer Address", City: "Delhi", State: "Delhi", Country: "India"},
		Email:   "customer@example.com",
		Phone:   "+91-XXXXXXXXXX",
	}
}

func (b *Builder) customer(p *protocol.OrderParams, billing *protocol.Billing) *protocol.Customer {
	if p != nil && p.Customer != nil {
		cp := *p.Customer
		return &cp
	}
	return &protocol.Customer{
		ID:      "customer_001",
		Person:  &protocol.Person{Name: billing.Name},
		Contact: &protocol.Contact{Phone: billing.Phone, Email: billing.Email},
		Address: billing.Address,
	}
}
