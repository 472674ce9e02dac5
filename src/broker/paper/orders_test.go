package paper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

func limitOrder(code eventmodels.StockCode, action eventmodels.Action, price string, qty int64) eventmodels.OrderRequest {
	req := eventmodels.OrderRequest{
		Code:     code,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
		Action:   action,
	}
	req.ApplyDefaults()
	return req
}

func TestExchangeOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("buy fills when limit crosses last", func(t *testing.T) {
		e := newTestExchange(t, Config{})
		contract, err := e.Contract(ctx, "2330")
		require.NoError(t, err)

		trade, err := e.PlaceOrder(ctx, contract, limitOrder("2330", eventmodels.ActionBuy, "1040", 2))
		require.NoError(t, err)
		assert.Equal(t, eventmodels.OrderStatusPendingSubmit, trade.Status.Status)
		assert.NotEmpty(t, trade.Order.ID)

		require.NoError(t, e.UpdateStatus(ctx))

		trades, err := e.ListTrades(ctx)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, eventmodels.OrderStatusFilled, trades[0].Status.Status)
		assert.Equal(t, int64(2), trades[0].Status.DealQuantity)
		assert.NotEmpty(t, trades[0].Order.Ordno)

		positions, err := e.ListPositions(ctx, eventmodels.UnitCommon)
		require.NoError(t, err)
		require.Len(t, positions, 1)
		assert.Equal(t, int64(2), positions[0].Quantity)

		shares, err := e.ListPositions(ctx, eventmodels.UnitShare)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), shares[0].Quantity)

		balance, err := e.AccountBalance(ctx)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(10_000_000-2_070_000).Equal(balance.Balance), balance.Balance.String())
	})

	t.Run("sell realizes profit and loss", func(t *testing.T) {
		e := newTestExchange(t, Config{})
		contract, err := e.Contract(ctx, "2330")
		require.NoError(t, err)

		_, err = e.PlaceOrder(ctx, contract, limitOrder("2330", eventmodels.ActionBuy, "1035", 1))
		require.NoError(t, err)
		require.NoError(t, e.UpdateStatus(ctx))

		_, err = e.PlaceOrder(ctx, contract, limitOrder("2330", eventmodels.ActionSell, "1000", 1))
		require.NoError(t, err)
		require.NoError(t, e.UpdateStatus(ctx))

		day := time.Date(2024, time.March, 6, 0, 0, 0, 0, taipei)
		pnl, err := e.ListProfitLoss(ctx, day, day)
		require.NoError(t, err)
		require.Len(t, pnl, 1)
		assert.True(t, pnl[0].PNL.IsZero(), "bought and sold at the same last price")

		none, err := e.ListProfitLoss(ctx, day.AddDate(0, 0, -10), day.AddDate(0, 0, -1))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("sell without position fails", func(t *testing.T) {
		e := newTestExchange(t, Config{})
		contract, err := e.Contract(ctx, "2317")
		require.NoError(t, err)

		_, err = e.PlaceOrder(ctx, contract, limitOrder("2317", eventmodels.ActionSell, "200", 1))
		require.NoError(t, err)
		require.NoError(t, e.UpdateStatus(ctx))

		trades, err := e.ListTrades(ctx)
		require.NoError(t, err)
		assert.Equal(t, eventmodels.OrderStatusFailed, trades[0].Status.Status)
		assert.Contains(t, trades[0].Status.Msg, "insufficient position")
	})

	t.Run("rejects prices outside the limits", func(t *testing.T) {
		e := newTestExchange(t, Config{})
		contract, err := e.Contract(ctx, "2330")
		require.NoError(t, err)

		_, err = e.PlaceOrder(ctx, contract, limitOrder("2330", eventmodels.ActionBuy, "2000", 1))
		assert.ErrorIs(t, err, eventmodels.ErrSubmission)

		_, err = e.PlaceOrder(ctx, contract, limitOrder("2330", eventmodels.ActionBuy, "1001", 1))
		assert.ErrorIs(t, err, eventmodels.ErrSubmission, "off the tick grid")
	})

	t.Run("update and cancel a resting order", func(t *testing.T) {
		e := newTestExchange(t, Config{})
		contract, err := e.Contract(ctx, "2330")
		require.NoError(t, err)

		trade, err := e.PlaceOrder(ctx, contract, limitOrder("2330", eventmodels.ActionBuy, "1000", 3))
		require.NoError(t, err)
		require.NoError(t, e.UpdateStatus(ctx))

		price := decimal.NewFromInt(1005)
		updated, err := e.UpdateOrder(ctx, trade, broker.UpdateOrderRequest{Price: &price})
		require.NoError(t, err)
		assert.True(t, price.Equal(updated.Order.Price))
		assert.NotNil(t, updated.Status.ModifiedTime)

		qty := int64(1)
		updated, err = e.UpdateOrder(ctx, trade, broker.UpdateOrderRequest{Quantity: &qty})
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Status.CancelQuantity)
		assert.Equal(t, int64(1), updated.RemainingQuantity())

		more := int64(5)
		_, err = e.UpdateOrder(ctx, trade, broker.UpdateOrderRequest{Quantity: &more})
		assert.ErrorIs(t, err, eventmodels.ErrSubmission)

		cancelled, err := e.CancelOrder(ctx, trade)
		require.NoError(t, err)
		assert.Equal(t, eventmodels.OrderStatusCancelled, cancelled.Status.Status)

		_, err = e.CancelOrder(ctx, trade)
		assert.ErrorIs(t, err, eventmodels.ErrSubmission, "already cancelled")
	})

	t.Run("unknown trade", func(t *testing.T) {
		e := newTestExchange(t, Config{})
		_, err := e.CancelOrder(ctx, &eventmodels.Trade{Order: eventmodels.Order{ID: "deadbeef"}})
		assert.ErrorIs(t, err, eventmodels.ErrUnknownTrade)
	})

	t.Run("ioc without cross is cancelled", func(t *testing.T) {
		e := newTestExchange(t, Config{})
		contract, err := e.Contract(ctx, "2330")
		require.NoError(t, err)

		req := limitOrder("2330", eventmodels.ActionBuy, "1000", 1)
		req.OrderType = eventmodels.OrderTypeIOC
		_, err = e.PlaceOrder(ctx, contract, req)
		require.NoError(t, err)
		require.NoError(t, e.UpdateStatus(ctx))

		trades, err := e.ListTrades(ctx)
		require.NoError(t, err)
		assert.Equal(t, eventmodels.OrderStatusCancelled, trades[0].Status.Status)
	})

	t.Run("order callback sees status changes", func(t *testing.T) {
		e := newTestExchange(t, Config{})
		contract, err := e.Contract(ctx, "2330")
		require.NoError(t, err)

		var mu sync.Mutex
		var statuses []eventmodels.OrderStatus
		e.SetOnOrder(func(trade *eventmodels.Trade) {
			mu.Lock()
			defer mu.Unlock()
			statuses = append(statuses, trade.Status.Status)
		})

		_, err = e.PlaceOrder(ctx, contract, limitOrder("2330", eventmodels.ActionBuy, "1040", 1))
		require.NoError(t, err)
		require.NoError(t, e.UpdateStatus(ctx))
		e.Flush()

		mu.Lock()
		defer mu.Unlock()
		assert.ElementsMatch(t, []eventmodels.OrderStatus{eventmodels.OrderStatusPendingSubmit, eventmodels.OrderStatusFilled}, statuses)
	})
}
