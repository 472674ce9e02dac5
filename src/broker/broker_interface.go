package broker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

// Push callbacks. The backend invokes them on its own goroutine and keeps a
// single callback per message kind: setting one replaces the previous.
type (
	TickCallback   func(exchange eventmodels.Exchange, tick *eventmodels.Tick)
	BidAskCallback func(exchange eventmodels.Exchange, bidask *eventmodels.BidAsk)
	QuoteCallback  func(exchange eventmodels.Exchange, quote *eventmodels.Quote)
	OrderCallback  func(trade *eventmodels.Trade)
)

// SubscribeRequest carries one quote subscription. IntradayOdd is only
// meaningful for tick and bidask kinds.
type SubscribeRequest struct {
	Contract    eventmodels.Contract
	QuoteType   eventmodels.QuoteType
	IntradayOdd bool
}

// UpdateOrderRequest amends a live order. Nil fields are left unchanged.
type UpdateOrderRequest struct {
	Price    *decimal.Decimal
	Quantity *int64
}

// IBroker is the brokerage SDK surface this adapter depends on.
type IBroker interface {
	Login(ctx context.Context, creds eventmodels.Credentials, simulation bool) ([]eventmodels.Account, error)
	Logout(ctx context.Context) error
	FetchContracts(ctx context.Context) error

	ListAccounts(ctx context.Context) ([]eventmodels.Account, error)
	Contract(ctx context.Context, code eventmodels.StockCode) (eventmodels.Contract, error)
	ListContracts(ctx context.Context, filter eventmodels.ContractFilter) ([]eventmodels.Contract, error)

	Subscribe(ctx context.Context, req SubscribeRequest) error
	SetOnTick(cb TickCallback)
	SetOnBidAsk(cb BidAskCallback)
	SetOnQuote(cb QuoteCallback)
	SetOnOrder(cb OrderCallback)

	PlaceOrder(ctx context.Context, contract eventmodels.Contract, req eventmodels.OrderRequest) (*eventmodels.Trade, error)
	UpdateOrder(ctx context.Context, trade *eventmodels.Trade, req UpdateOrderRequest) (*eventmodels.Trade, error)
	CancelOrder(ctx context.Context, trade *eventmodels.Trade) (*eventmodels.Trade, error)
	UpdateStatus(ctx context.Context) error
	ListTrades(ctx context.Context) ([]*eventmodels.Trade, error)

	ListPositions(ctx context.Context, unit eventmodels.Unit) ([]eventmodels.Position, error)
	ListProfitLoss(ctx context.Context, begin, end time.Time) ([]eventmodels.ProfitLoss, error)
	AccountBalance(ctx context.Context) (eventmodels.AccountBalance, error)

	Kbars(ctx context.Context, contract eventmodels.Contract, start, end time.Time) ([]eventmodels.Kbar, error)
	Snapshots(ctx context.Context, contracts []eventmodels.Contract) ([]eventmodels.Snapshot, error)
}
