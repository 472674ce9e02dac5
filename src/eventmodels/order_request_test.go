package eventmodels

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req := OrderRequest{Code: "2330", Price: decimal.NewFromInt(600), Quantity: 1}
		req.ApplyDefaults()

		assert.Equal(t, ActionBuy, req.Action)
		assert.Equal(t, StockPriceTypeLimit, req.PriceType)
		assert.Equal(t, OrderTypeROD, req.OrderType)
		assert.Equal(t, StockOrderLotCommon, req.OrderLot)
		assert.Equal(t, StockOrderCondCash, req.OrderCond)
		assert.NoError(t, req.Validate())
	})

	t.Run("explicit values are kept", func(t *testing.T) {
		req := OrderRequest{Code: "2330", Price: decimal.NewFromInt(600), Quantity: 1, Action: ActionSell, OrderType: OrderTypeIOC, OrderLot: StockOrderLotIntradayOdd}
		req.ApplyDefaults()

		assert.Equal(t, ActionSell, req.Action)
		assert.Equal(t, OrderTypeIOC, req.OrderType)
		assert.Equal(t, StockOrderLotIntradayOdd, req.OrderLot)
	})

	t.Run("invalid", func(t *testing.T) {
		cases := map[string]OrderRequest{
			"zero quantity":   {Code: "2330", Price: decimal.NewFromInt(600), Quantity: 0},
			"zero limit":      {Code: "2330", Quantity: 1},
			"missing code":    {Price: decimal.NewFromInt(600), Quantity: 1},
			"bad action":      {Code: "2330", Price: decimal.NewFromInt(600), Quantity: 1, Action: "Hold"},
			"market with rod": {Code: "2330", Quantity: 1, PriceType: StockPriceTypeMarket},
		}

		for name, req := range cases {
			req.ApplyDefaults()
			assert.ErrorIs(t, req.Validate(), ErrValidation, name)
		}
	})

	t.Run("parse enum", func(t *testing.T) {
		action, err := ParseEnum("sell", ActionBuy, ActionBuy, ActionSell)
		assert.NoError(t, err)
		assert.Equal(t, ActionSell, action)

		action, err = ParseEnum("", ActionBuy, ActionBuy, ActionSell)
		assert.NoError(t, err)
		assert.Equal(t, ActionBuy, action)

		_, err = ParseEnum("hold", ActionBuy, ActionBuy, ActionSell)
		assert.ErrorIs(t, err, ErrValidation)
	})
}
