package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_CallbackAndBase(t *testing.T) {
	for _, a := range RequestActions {
		cb := a.Callback()
		assert.True(t, cb.IsCallback(), "%s", cb)
		assert.Equal(t, "on_"+string(a), string(cb))
		assert.Equal(t, a, cb.Base())
		assert.Equal(t, cb, cb.Callback(), "callback of a callback is itself")
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" On_Search ")
	require.NoError(t, err)
	assert.Equal(t, ActionOnSearch, a)

	_, err = ParseAction("confirm_everything")
	assert.Error(t, err)
}

func TestDecodeRequest_Malformed(t *testing.T) {
	cases := []string{``, `not json`, `[1,2]`, `{"context": `, `"str"`}
	for _, body := range cases {
		_, err := DecodeRequest([]byte(body))
		if !errors.Is(err, ErrMalformedBody) {
			t.Errorf("body %q: expected ErrMalformedBody, got %v", body, err)
		}
	}
}

func TestDecodeRequest_QuantityForms(t *testing.T) {
	body := `{
		"context": {"domain": "ONDC:RET10", "transaction_id": "txn-1"},
		"message": {"order": {"items": [
			{"id": "item_001", "quantity": 2},
			{"id": "item_002", "quantity": {"count": "3"}},
			{"id": "item_003"},
			{"id": "item_004", "quantity": {"count": 4, "measure": {"unit": "kg", "value": "4"}}}
		]}}
	}`
	req, err := DecodeRequest([]byte(body))
	require.NoError(t, err)

	items := req.Message.Order.Items
	require.Len(t, items, 4)
	assert.Equal(t, 2, items[0].Quantity.Count)
	assert.Equal(t, 3, items[1].Quantity.Count)
	assert.Equal(t, 1, items[2].Quantity.Count, "absent quantity defaults to 1")
	assert.Equal(t, 4, items[3].Quantity.Count)
	require.NotNil(t, items[3].Quantity.Measure)
	assert.Equal(t, "kg", items[3].Quantity.Measure.Unit)
	assert.Equal(t, 4, items[3].Quantity.Measure.Value)
}

func TestDecodeRequest_BadQuantity(t *testing.T) {
	for _, q := range []string{`"many"`, `2.7`, `{"count": "2.5"}`, `1e20`, `"99999999999999999999"`} {
		req, err := DecodeRequest([]byte(`{"context": {"transaction_id": "t-1"}, "message": {"order": {"items": [{"id": "x", "quantity": ` + q + `}]}}}`))
		var fe *FieldError
		require.ErrorAs(t, err, &fe, q)
		assert.NotErrorIs(t, err, ErrMalformedBody, q)
		require.NotNil(t, req, q)
		require.NotNil(t, req.Context, q)
		assert.Equal(t, "t-1", req.Context.TransactionID, q)
	}
}

func TestDecodeRequest_IntegralQuantities(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"message": {"order": {"items": [{"id": "a", "quantity": 3.0}, {"id": "b", "quantity": "12"}]}}}`))
	require.NoError(t, err)
	assert.Equal(t, 3, req.Message.Order.Items[0].Quantity.Count)
	assert.Equal(t, 12, req.Message.Order.Items[1].Quantity.Count)
}

func TestDecodeRequest_MistypedFieldsAreFieldErrors(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"message array": {`{"context": {"transaction_id": "t-1"}, "message": []}`, "message"},
		"numeric ttl":   {`{"context": {"transaction_id": "t-1", "ttl": 30}, "message": {}}`, "context.ttl"},
		"numeric price": {`{"context": {"transaction_id": "t-1"}, "message": {"order": {"items": [{"id": "x", "price": {"value": 10}}]}}}`, "message.order.items.price.value"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req, err := DecodeRequest([]byte(tc.body))
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.field, fe.Field)
			assert.Equal(t, "Invalid value for field: "+tc.field, fe.Error())
			require.NotNil(t, req.Context)
			assert.Equal(t, "t-1", req.Context.TransactionID)
		})
	}
}

func TestDecodeRequest_FoldsPluralFulfillment(t *testing.T) {
	body := `{"context": {"domain": "d"}, "message": {"order": {
		"items": [],
		"fulfillments": [{"type": "Delivery", "locations": [{"city": {"name": "Pune"}}]}],
		"payments": [{"type": "ON-ORDER"}]
	}}}`
	req, err := DecodeRequest([]byte(body))
	require.NoError(t, err)
	order := req.Message.Order
	require.NotNil(t, order.Fulfillment)
	require.NotNil(t, order.Payment)
	assert.Equal(t, "Pune", order.Fulfillment.Locations[0].CityName())
	assert.Equal(t, "ON-ORDER", order.Payment.Type)
	assert.NotNil(t, order.Items, "empty items array stays present")
}

func TestDecodeRequest_MissingKeysAreNil(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"context": {"domain": "X"}}`))
	require.NoError(t, err)
	assert.NotNil(t, req.Context)
	assert.Nil(t, req.Message)
}

func TestNewFulfillmentRef_FirstLocationWithACityName(t *testing.T) {
	ref := NewFulfillmentRef(&Fulfillment{
		Type: "Delivery",
		Locations: []Location{
			{State: &NamedArea{Name: "Delhi"}},
			{City: &NamedArea{Code: "std:080"}},
			{City: &NamedArea{Name: "Chennai"}},
			{City: &NamedArea{Name: "Mumbai"}},
		},
	})
	require.NotNil(t, ref)
	assert.Equal(t, []string{"Chennai", "Mumbai"}, ref.Cities)
	assert.Equal(t, "Chennai", ref.FirstCity())

	req, err := DecodeRequest([]byte(`{"message": {"order": {"fulfillment": {"locations": [
		{"city": {}},
		{"city": {"name": null}},
		{"city": {"name": ""}},
		{"city": {"name": "Mumbai"}}
	]}}}}`))
	require.NoError(t, err)
	ref = NewFulfillmentRef(req.Message.Order.Fulfillment)
	assert.Equal(t, []string{"", "Mumbai"}, ref.Cities)
	assert.Equal(t, "", ref.FirstCity(), "a sent but empty name decides, and pays the base charge")

	assert.Nil(t, NewFulfillmentRef(nil))
	var nilRef *FulfillmentRef
	assert.Equal(t, "", nilRef.FirstCity())
}

func TestValidateEnvelope(t *testing.T) {
	ok := &Envelope{
		Context: Context{Action: ActionOnSearch, MessageID: "m-1", Timestamp: "2024-01-01T00:00:00Z", TTL: DefaultTTL},
		Message: ResponseMessage{Ack: Ack{Status: StatusACK}, Catalog: &Catalog{Providers: []Provider{}}},
	}
	assert.NoError(t, ValidateEnvelope(ok))

	nackWithoutError := &Envelope{
		Context: ok.Context,
		Message: ResponseMessage{Ack: Ack{Status: StatusNACK}},
	}
	assert.Error(t, ValidateEnvelope(nackWithoutError))

	nack := &Envelope{
		Context: ok.Context,
		Message: ResponseMessage{Ack: Ack{Status: StatusNACK}, Error: &Error{Code: NackErrorCode, Message: "Missing intent in message"}},
	}
	assert.NoError(t, ValidateEnvelope(nack))

	wrongAction := &Envelope{
		Context: Context{Action: ActionSearch, MessageID: "m-1", Timestamp: "t", TTL: DefaultTTL},
		Message: ResponseMessage{Ack: Ack{Status: StatusACK}},
	}
	assert.Error(t, ValidateEnvelope(wrongAction))
}
