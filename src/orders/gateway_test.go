package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/broker/mock"
	"github.com/jiaming2012/shioaji-mcp/src/broker/paper"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/session"
)

type fixedSession struct {
	b broker.IBroker
}

func (f fixedSession) Broker() (broker.IBroker, error) {
	if f.b == nil {
		return nil, eventmodels.ErrNotLoggedIn
	}

	return f.b, nil
}

func (f fixedSession) Epoch() uint64 {
	return 0
}

func newMockGateway() (*Gateway, *mock.Broker) {
	b := mock.New()
	b.AddContract(eventmodels.Contract{Code: "2330", Exchange: eventmodels.ExchangeTSE, Unit: 1000})
	return NewGateway(fixedSession{b: b}), b
}

func TestPlaceDefaults(t *testing.T) {
	ctx := context.Background()
	g, b := newMockGateway()

	trade, err := g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Price: decimal.NewFromInt(1000), Quantity: 1})
	require.NoError(t, err)

	calls := b.Calls("PlaceOrder")
	require.Len(t, calls, 1)

	submitted := calls[0].Args[1].(eventmodels.OrderRequest)
	assert.Equal(t, eventmodels.ActionBuy, submitted.Action)
	assert.Equal(t, eventmodels.StockPriceTypeLimit, submitted.PriceType)
	assert.Equal(t, eventmodels.OrderTypeROD, submitted.OrderType)
	assert.Equal(t, eventmodels.StockOrderLotCommon, submitted.OrderLot)
	assert.Equal(t, eventmodels.StockOrderCondCash, submitted.OrderCond)

	assert.Equal(t, eventmodels.OrderStatusSubmitted, trade.Status.Status, "status refreshed after submission")
	assert.Len(t, b.Calls("UpdateStatus"), 1)
}

func TestPlaceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid request never reaches the backend", func(t *testing.T) {
		g, b := newMockGateway()

		_, err := g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Price: decimal.NewFromInt(1000)})
		assert.ErrorIs(t, err, eventmodels.ErrValidation)

		_, err = g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Quantity: 1})
		assert.ErrorIs(t, err, eventmodels.ErrValidation, "limit order without price")

		_, err = g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Quantity: 1, Price: decimal.NewFromInt(1000), Action: "Hold"})
		assert.ErrorIs(t, err, eventmodels.ErrValidation)

		assert.Empty(t, b.Calls("PlaceOrder"))
	})

	t.Run("unknown code", func(t *testing.T) {
		g, _ := newMockGateway()

		_, err := g.Place(ctx, eventmodels.OrderRequest{Code: "9999", Price: decimal.NewFromInt(10), Quantity: 1})
		assert.ErrorIs(t, err, eventmodels.ErrLookup)
	})

	t.Run("backend rejection", func(t *testing.T) {
		g, b := newMockGateway()
		b.PlaceOrderFunc = func(context.Context, eventmodels.Contract, eventmodels.OrderRequest) (*eventmodels.Trade, error) {
			return nil, fmt.Errorf("Order not accepted: price exceeds limit")
		}

		_, err := g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Price: decimal.NewFromInt(1000), Quantity: 1})
		require.ErrorIs(t, err, eventmodels.ErrSubmission)
		assert.Contains(t, err.Error(), "price exceeds limit")
	})

	t.Run("not logged in", func(t *testing.T) {
		g := NewGateway(fixedSession{})

		_, err := g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Price: decimal.NewFromInt(1000), Quantity: 1})
		assert.ErrorIs(t, err, eventmodels.ErrNotLoggedIn)
	})

	t.Run("stale status is tolerated", func(t *testing.T) {
		g, b := newMockGateway()
		b.UpdateStatusFunc = func(context.Context) error { return fmt.Errorf("timeout") }

		trade, err := g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Price: decimal.NewFromInt(1000), Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, eventmodels.OrderStatusPendingSubmit, trade.Status.Status)
	})
}

func TestUnknownTradeReference(t *testing.T) {
	ctx := context.Background()
	g, b := newMockGateway()

	_, err := g.Cancel(ctx, "not-a-trade")
	assert.ErrorIs(t, err, eventmodels.ErrUnknownTrade)
	assert.ErrorIs(t, err, eventmodels.ErrLookup)

	_, err = g.UpdatePrice(ctx, "not-a-trade", decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, eventmodels.ErrUnknownTrade)

	_, err = g.UpdateQuantity(ctx, "not-a-trade", 1)
	assert.ErrorIs(t, err, eventmodels.ErrUnknownTrade)

	assert.Empty(t, b.Calls("CancelOrder"))
	assert.Empty(t, b.Calls("UpdateOrder"))
}

func TestBookClearedWhenSessionChanges(t *testing.T) {
	ctx := context.Background()
	creds := eventmodels.Credentials{APIKey: "key", SecretKey: "secret"}

	b := mock.New()
	b.AddContract(eventmodels.Contract{Code: "2330", Exchange: eventmodels.ExchangeTSE, Unit: 1000})
	sess := session.New(func() (broker.IBroker, error) { return b, nil }, nil, true)

	_, err := sess.Login(ctx, creds)
	require.NoError(t, err)

	g := NewGateway(sess)
	placed, err := g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Price: decimal.NewFromInt(1000), Quantity: 1})
	require.NoError(t, err)

	_, err = g.Trade(placed.Order.ID)
	require.NoError(t, err)

	require.NoError(t, sess.Logout(ctx))
	_, err = sess.Login(ctx, creds)
	require.NoError(t, err)

	_, err = g.Trade(placed.Order.ID)
	assert.ErrorIs(t, err, eventmodels.ErrUnknownTrade)

	_, err = g.Cancel(ctx, placed.Order.ID)
	assert.ErrorIs(t, err, eventmodels.ErrUnknownTrade)
	assert.Empty(t, b.Calls("CancelOrder"))
}

func TestUpdateUsesPlacedHandle(t *testing.T) {
	ctx := context.Background()
	g, b := newMockGateway()

	placed, err := g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Price: decimal.NewFromInt(1000), Quantity: 3})
	require.NoError(t, err)

	_, err = g.UpdatePrice(ctx, placed.Order.ID, decimal.NewFromInt(1005))
	require.NoError(t, err)

	updateCalls := b.Calls("UpdateOrder")
	require.Len(t, updateCalls, 1)
	assert.Same(t, b.Trades[0], updateCalls[0].Args[0])

	req := updateCalls[0].Args[1].(broker.UpdateOrderRequest)
	require.NotNil(t, req.Price)
	assert.Nil(t, req.Quantity)
	assert.True(t, decimal.NewFromInt(1005).Equal(*req.Price))

	_, err = g.UpdatePrice(ctx, placed.Order.ID, decimal.Zero)
	assert.ErrorIs(t, err, eventmodels.ErrValidation)

	_, err = g.UpdateQuantity(ctx, placed.Order.ID, 0)
	assert.ErrorIs(t, err, eventmodels.ErrValidation)

	cancelled, err := g.Cancel(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, eventmodels.OrderStatusCancelled, cancelled.Status.Status)
}

func TestGatewayWithPaperExchange(t *testing.T) {
	ctx := context.Background()

	ex, err := paper.NewExchange(paper.Config{
		Now: func() time.Time { return time.Date(2024, time.March, 6, 10, 0, 0, 0, time.FixedZone("CST", 8*60*60)) },
	})
	require.NoError(t, err)

	_, err = ex.Login(ctx, eventmodels.Credentials{APIKey: "key", SecretKey: "secret"}, true)
	require.NoError(t, err)
	defer ex.Logout(ctx)

	g := NewGateway(fixedSession{b: ex})

	resting, err := g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Price: decimal.NewFromInt(1000), Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, eventmodels.OrderStatusSubmitted, resting.Status.Status)

	reduced, err := g.UpdateQuantity(ctx, resting.Order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reduced.RemainingQuantity())

	_, err = g.UpdateQuantity(ctx, resting.Order.ID, 2)
	assert.ErrorIs(t, err, eventmodels.ErrSubmission, "quantity can only go down")

	filled, err := g.Place(ctx, eventmodels.OrderRequest{Code: "2330", Price: decimal.NewFromInt(1040), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, eventmodels.OrderStatusFilled, filled.Status.Status)

	_, err = g.Cancel(ctx, filled.Order.ID)
	assert.ErrorIs(t, err, eventmodels.ErrSubmission, "filled orders cannot be cancelled")

	cancelled, err := g.Cancel(ctx, resting.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, eventmodels.OrderStatusCancelled, cancelled.Status.Status)

	trades, err := g.ListTrades(ctx)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}
