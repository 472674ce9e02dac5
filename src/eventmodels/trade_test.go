package eventmodels

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTradeRemainingQuantity(t *testing.T) {
	trade := &Trade{
		Order:  Order{ID: "abc123", Quantity: 5},
		Status: OrderState{Status: OrderStatusFilling, DealQuantity: 2},
	}

	assert.Equal(t, "abc123", trade.GetID())
	assert.Equal(t, int64(3), trade.RemainingQuantity())

	trade.Status.CancelQuantity = 3
	assert.Equal(t, int64(0), trade.RemainingQuantity())

	trade.Status.CancelQuantity = 9
	assert.Equal(t, int64(0), trade.RemainingQuantity())
}

func TestOrderStatus(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPendingSubmit, OrderStatusPreSubmitted, OrderStatusSubmitted, OrderStatusFilling} {
		assert.True(t, s.IsWorking(), s)
		assert.False(t, s.IsFinal(), s)
	}

	for _, s := range []OrderStatus{OrderStatusFailed, OrderStatusCancelled, OrderStatusFilled} {
		assert.False(t, s.IsWorking(), s)
		assert.True(t, s.IsFinal(), s)
	}

	assert.Error(t, OrderStatus("Unknown").Validate())
}

func TestCredentials(t *testing.T) {
	err := Credentials{APIKey: "key"}.Validate()
	assert.True(t, errors.Is(err, ErrConnection))

	creds := Credentials{APIKey: "PK1234567", SecretKey: "very-secret", FetchContract: true}
	assert.NoError(t, creds.Validate())
	assert.Equal(t, "Credentials{APIKey: PK12****, FetchContract: true}", creds.String())
	assert.NotContains(t, creds.String(), "very-secret")
	assert.Equal(t, "****", maskSecret("abc"))
}
