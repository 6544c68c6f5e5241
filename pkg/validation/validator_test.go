package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

func decode(t *testing.T, body string) *protocol.Request {
	t.Helper()
	req, err := protocol.DecodeRequest([]byte(body))
	require.NoError(t, err)
	return req
}

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		action  protocol.Action
		body    string
		field   string
		message string
	}{
		{"no context", protocol.ActionSearch, `{"message": {}}`, "context", "Missing required field: context"},
		{"no message", protocol.ActionSelect, `{"context": {"domain": "X"}}`, "message", "Missing required field: message"},
		{"null message", protocol.ActionInit, `{"context": {"domain": "X"}, "message": null}`, "message", "Missing required field: message"},
		{"no domain", protocol.ActionSearch, `{"context": {}, "message": {"intent": {}}}`, "context.domain", "Missing domain in context"},
		{"empty domain", protocol.ActionSearch, `{"context": {"domain": ""}, "message": {"intent": {}}}`, "context.domain", "Missing domain in context"},
		{"search no intent", protocol.ActionSearch, `{"context": {"domain": "X"}, "message": {}}`, "message.intent", "Missing intent in message"},
		{"select no order", protocol.ActionSelect, `{"context": {"domain": "X"}, "message": {}}`, "message.order", "Missing order in message"},
		{"select no items", protocol.ActionSelect, `{"context": {"domain": "X"}, "message": {"order": {}}}`, "message.order.items", "Missing items in order"},
		{"init no fulfillment", protocol.ActionInit, `{"context": {"domain": "X"}, "message": {"order": {"items": []}}}`, "message.order.fulfillment", "Missing fulfillment in order"},
		{"init no payment", protocol.ActionInit, `{"context": {"domain": "X"}, "message": {"order": {"items": [], "fulfillment": {}}}}`, "message.order.payment", "Missing payment in order"},
		{"update no order", protocol.ActionUpdate, `{"context": {"domain": "X"}, "message": {}}`, "message.order", "Missing order in message"},
		{"cancel no order", protocol.ActionOnCancel, `{"context": {"domain": "X"}, "message": {}}`, "message.order", "Missing order in message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.action, decode(t, tt.body))
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.message, ve.Error())
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestValidate_EveryActionRejectsMissingMessage(t *testing.T) {
	for _, a := range protocol.RequestActions {
		for _, action := range []protocol.Action{a, a.Callback()} {
			_, err := Validate(action, decode(t, `{"context": {"domain": "X"}}`))
			if !IsValidationError(err) {
				t.Errorf("%s: expected validation error, got %v", action, err)
			}
		}
	}
}

func TestValidate_Idempotent(t *testing.T) {
	req := decode(t, `{"context": {"domain": "X"}, "message": {"order": {}}}`)
	_, err1 := Validate(protocol.ActionSelect, req)
	_, err2 := Validate(protocol.ActionSelect, req)
	require.Error(t, err1)
	assert.Equal(t, err1.Error(), err2.Error())

	ok := decode(t, `{"context": {"domain": "X"}, "message": {"order": {"items": [{"id": "item_001", "quantity": 2}]}}}`)
	p1, err := Validate(protocol.ActionSelect, ok)
	require.NoError(t, err)
	p2, err := Validate(protocol.ActionSelect, ok)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestValidate_TrackAndStatusNeedNoOrder(t *testing.T) {
	p, err := Validate(protocol.ActionTrack, decode(t, `{"context": {"domain": "X"}, "message": {"order_id": "order_1"}}`))
	require.NoError(t, err)
	require.NotNil(t, p.Order)
	assert.Equal(t, "order_1", p.Order.OrderID)

	_, err = Validate(protocol.ActionStatus, decode(t, `{"context": {"domain": "X"}, "message": {}}`))
	assert.NoError(t, err)
}

func TestValidate_UnsupportedAction(t *testing.T) {
	_, err := Validate(protocol.Action("confirm"), decode(t, `{"context": {"domain": "X"}, "message": {}}`))
	assert.True(t, IsValidationError(err))
}

func TestValidate_SearchParams(t *testing.T) {
	body := `{
		"context": {"domain": "ONDC:RET10"},
		"message": {"intent": {
			"item": {"descriptor": {"name": "rice"}},
			"category": {"id": "Foodgrains"},
			"fulfillment": {"type": "Delivery", "locations": [{"city": {"name": "Delhi"}, "state": {"name": "Delhi"}, "country": {"name": "India"}}]},
			"payment": {"@ondc/org/buyer_app_finder_fee_type": "percent", "@ondc/org/buyer_app_finder_fee_amount": "3"}
		}}
	}`
	p, err := Validate(protocol.ActionSearch, decode(t, body))
	require.NoError(t, err)
	require.NotNil(t, p.Search)
	assert.Nil(t, p.Order)

	s := p.Search
	assert.Equal(t, "rice", s.Query)
	assert.Equal(t, "Foodgrains", s.Category, "falls back to intent.category.id")
	assert.Equal(t, "Delhi", s.City)
	assert.Equal(t, "India", s.Country)
	assert.Equal(t, "percent", s.FinderFeeType)
	assert.Equal(t, "3", s.FinderFeeAmount)
	assert.Equal(t, "Delivery", s.Fulfillment.Type)
}

func TestValidate_SearchPrefersItemCategory(t *testing.T) {
	body := `{"context": {"domain": "X"}, "message": {"intent": {"item": {"category_id": "Fruits"}, "category": {"id": "Snacks"}}}}`
	p, err := Validate(protocol.ActionSearch, decode(t, body))
	require.NoError(t, err)
	assert.Equal(t, "Fruits", p.Search.Category)
	assert.Equal(t, "general", p.Search.Query)
	assert.Equal(t, "", p.Search.City)
}

func TestValidate_OrderParams(t *testing.T) {
	body := `{
		"context": {"domain": "ONDC:RET10"},
		"message": {"order": {
			"items": [{"id": "item_001", "quantity": 2}, {"id": "item_002"}],
			"fulfillment": {"type": "Delivery", "locations": [{"city": {"name": "Delhi"}}]},
			"payment": {"type": "ON-ORDER", "collected_by": "BAP"},
			"billing": {"name": "Asha"}
		}}
	}`
	p, err := Validate(protocol.ActionInit, decode(t, body))
	require.NoError(t, err)
	o := p.Order
	require.NotNil(t, o)
	assert.Equal(t, []protocol.ItemRef{{ID: "item_001", Quantity: 2}, {ID: "item_002", Quantity: 1}}, o.Items)
	assert.Equal(t, "Delhi", o.Fulfillment.FirstCity())
	assert.Equal(t, "BAP", o.Payment.CollectedBy)
	assert.Equal(t, "Asha", o.Billing.Name)
}

func TestValidate_CancelReason(t *testing.T) {
	body := `{"context": {"domain": "X"}, "message": {"order": {"id": "order_9", "cancellation": {"reason": {"id": "002"}}}}}`
	p, err := Validate(protocol.ActionCancel, decode(t, body))
	require.NoError(t, err)
	assert.Equal(t, "order_9", p.Order.OrderID)
	assert.Equal(t, "002", p.Order.CancellationReasonID)
}
