// Package validation performs the structural presence checks each protocol
// action requires and normalizes a valid request into typed parameters.
//
// Checks are presence-only: values are never range-checked or cross-validated.
// A key that is absent, null, or an empty string counts as missing.
package validation

import (
	"strings"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

// Params is the normalized result of a successful validation. Exactly one
// of Search and Order is set.
type Params struct {
	Action protocol.Action
	Search *protocol.SearchParams
	Order  *protocol.OrderParams
}

type check struct {
	field   string
	message string
	absent  func(*protocol.RequestMessage) bool
}

var (
	needIntent = check{"message.intent", "Missing intent in message", func(m *protocol.RequestMessage) bool {
		return m.Intent == nil
	}}
	needOrder = check{"message.order", "Missing order in message", func(m *protocol.RequestMessage) bool {
		return m.Order == nil
	}}
	needItems = check{"message.order.items", "Missing items in order", func(m *protocol.RequestMessage) bool {
		return m.Order.Items == nil
	}}
	needFulfillment = check{"message.order.fulfillment", "Missing fulfillment in order", func(m *protocol.RequestMessage) bool {
		return m.Order.Fulfillment == nil
	}}
	needPayment = check{"message.order.payment", "Missing payment in order", func(m *protocol.RequestMessage) bool {
		return m.Order.Payment == nil
	}}
)

// checks lists the action-specific requirements, evaluated in order after
// the uniform context/message/domain checks.
var checks = map[protocol.Action][]check{
	protocol.ActionSearch: {needIntent},
	protocol.ActionSelect: {needOrder, needItems},
	protocol.ActionInit:   {needOrder, needItems, needFulfillment, needPayment},
	protocol.ActionUpdate: {needOrder},
	protocol.ActionCancel: {needOrder},
	protocol.ActionTrack:  nil,
	protocol.ActionStatus: nil,
}

// Validate checks req for the given action (base or callback form) and
// returns its normalized parameters. It has no side effects; repeated calls
// on the same request return the same result.
func Validate(action protocol.Action, req *protocol.Request) (*Params, error) {
	base := action.Base()
	rules, ok := checks[base]
	if !ok {
		return nil, missing("context.action", "Unsupported action: "+string(action))
	}

	if req == nil || req.Context == nil {
		return nil, missing("context", "Missing required field: context")
	}
	if req.Message == nil {
		return nil, missing("message", "Missing required field: message")
	}
	if strings.TrimSpace(req.Context.Domain) == "" {
		return nil, missing("context.domain", "Missing domain in context")
	}
	for _, c := range rules {
		if c.absent(req.Message) {
			return nil, missing(c.field, c.message)
		}
	}

	params := &Params{Action: base}
	if base == protocol.ActionSearch {
		params.Search = searchParams(req)
	} else {
		params.Order = orderParams(req)
	}
	return params, nil
}

func searchParams(req *protocol.Request) *protocol.SearchParams {
	intent := req.Message.Intent
	p := &protocol.SearchParams{
		Domain: req.Context.Domain,
		Query:  "general",
	}
	if intent.Item != nil {
		p.Category = intent.Item.CategoryID
		if intent.Item.Descriptor != nil && intent.Item.Descriptor.Name != "" {
			p.Query = intent.Item.Descriptor.Name
		}
	}
	if p.Category == "" && intent.Category != nil {
		p.Category = intent.Category.ID
	}
	if f := intent.Fulfillment; f != nil {
		p.Fulfillment = protocol.NewFulfillmentRef(f)
		if len(f.Locations) > 0 {
			loc := f.Locations[0]
			p.City = loc.CityName()
			if loc.State != nil {
				p.State = loc.State.Name
			}
			if loc.Country != nil {
				p.Country = loc.Country.Name
			}
		}
	}
	if pay := intent.Payment; pay != nil {
		p.FinderFeeType = pay.BuyerAppFinderFeeType
		p.FinderFeeAmount = pay.BuyerAppFinderFeeAmount
	}
	return p
}

func orderParams(req *protocol.Request) *protocol.OrderParams {
	msg := req.Message
	p := &protocol.OrderParams{
		Domain:               req.Context.Domain,
		OrderID:              msg.OrderID,
		CancellationReasonID: msg.CancellationReasonID,
		UpdateTarget:         msg.UpdateTarget,
	}
	order := msg.Order
	if order == nil {
		return p
	}
	if order.ID != "" {
		p.OrderID = order.ID
	}
	for _, it := range order.Items {
		qty := 1
		if it.Quantity != nil {
			qty = it.Quantity.Count
		}
		p.Items = append(p.Items, protocol.ItemRef{ID: it.ID, Quantity: qty})
	}
	p.Fulfillment = protocol.NewFulfillmentRef(order.Fulfillment)
	p.Payment = order.Payment
	p.Billing = order.Billing
	p.Customer = order.Customer
	if p.CancellationReasonID == "" && order.Cancellation != nil && order.Cancellation.Reason != nil {
		p.CancellationReasonID = order.Cancellation.Reason.ID
	}
	return p
}
