package messaging

import (
	"encoding/json"
	"testing"

	"github.com/pc7stha/ShopVerse/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	valid, err := json.Marshal(sampleOrder())
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
		ok      bool
	}{
		{"valid order", string(valid), true},
		{"empty payload", "", false},
		{"whitespace", "   ", false},
		{"null", "null", false},
		{"not json", "{not-json", false},
		{"wrong shape", `["orders"]`, false},
		{"missing order id", `{"userId":"u","totalAmount":1,"currency":"USD","items":[]}`, false},
		{"missing currency", `{"orderId":"7d444840-9dc0-11d1-b245-5ffdce74fad2","userId":"u","totalAmount":1,"items":[]}`, true},
		{"malformed currency", `{"orderId":"7d444840-9dc0-11d1-b245-5ffdce74fad2","userId":"u","currency":"US","items":[]}`, false},
		{"negative quantity", `{"orderId":"7d444840-9dc0-11d1-b245-5ffdce74fad2","userId":"u","currency":"USD","items":[{"productId":"p","quantity":-1}]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Decode[events.OrderCreated]([]byte(tt.payload))

			assert.Equal(t, tt.ok, result.OK())
			if tt.ok {
				require.NotNil(t, result.Event)
				assert.NoError(t, result.Err)
				return
			}
			assert.Nil(t, result.Event)
			assert.ErrorIs(t, result.Err, ErrMalformedMessage)
		})
	}
}

func TestDecode_KeepsFields(t *testing.T) {
	order := sampleOrder()
	payload, err := json.Marshal(order)
	require.NoError(t, err)

	result := Decode[events.OrderCreated](payload)
	require.True(t, result.OK())
	assert.Equal(t, order.OrderID, result.Event.OrderID)
	assert.Equal(t, order.CorrelationID, result.Event.CorrelationID)
	assert.Equal(t, order.Items, result.Event.Items)
}

func TestDecode_MissingCurrencyDefaultsToUSD(t *testing.T) {
	payload := `{"orderId":"7d444840-9dc0-11d1-b245-5ffdce74fad2","userId":"u","totalAmount":12.5,"items":[{"productId":"p","quantity":1,"unitPrice":12.5}]}`

	result := Decode[events.OrderCreated]([]byte(payload))
	require.True(t, result.OK(), "decode error: %v", result.Err)
	assert.Equal(t, events.DefaultCurrency, result.Event.Currency)
	assert.Equal(t, 12.5, result.Event.TotalAmount)
	assert.Equal(t, "u", result.Event.UserID)
}

func uuidFor(i int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(i)})
}
