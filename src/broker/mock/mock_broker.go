package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

// Call is one recorded backend invocation.
type Call struct {
	Method string
	Args   []interface{}
}

// Broker is a recording fake of broker.IBroker. Every method records its call
// and then defers to the matching Func field when set; otherwise it answers
// from the canned fields.
type Broker struct {
	mu    sync.Mutex
	calls []Call

	Accounts  []eventmodels.Account
	Contracts map[eventmodels.StockCode]eventmodels.Contract
	Trades    []*eventmodels.Trade
	Positions []eventmodels.Position
	PnL       []eventmodels.ProfitLoss
	Balance   eventmodels.AccountBalance
	Bars      []eventmodels.Kbar

	LoginFunc        func(ctx context.Context, creds eventmodels.Credentials, simulation bool) ([]eventmodels.Account, error)
	SubscribeFunc    func(ctx context.Context, req broker.SubscribeRequest) error
	PlaceOrderFunc   func(ctx context.Context, contract eventmodels.Contract, req eventmodels.OrderRequest) (*eventmodels.Trade, error)
	UpdateOrderFunc  func(ctx context.Context, trade *eventmodels.Trade, req broker.UpdateOrderRequest) (*eventmodels.Trade, error)
	CancelOrderFunc  func(ctx context.Context, trade *eventmodels.Trade) (*eventmodels.Trade, error)
	UpdateStatusFunc func(ctx context.Context) error

	cbMu     sync.RWMutex
	onTick   broker.TickCallback
	onBidAsk broker.BidAskCallback
	onQuote  broker.QuoteCallback
	onOrder  broker.OrderCallback
}

func New() *Broker {
	return &Broker{
		Contracts: make(map[eventmodels.StockCode]eventmodels.Contract),
	}
}

// AddContract registers a contract served by Contract and ListContracts.
func (b *Broker) AddContract(c eventmodels.Contract) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Contracts[c.Code] = c
}

func (b *Broker) record(method string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Method: method, Args: args})
}

// Calls returns every recorded call, optionally filtered by method name.
func (b *Broker) Calls(method string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Call
	for _, c := range b.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}

	return out
}

func (b *Broker) Login(ctx context.Context, creds eventmodels.Credentials, simulation bool) ([]eventmodels.Account, error) {
	b.record("Login", creds, simulation)
	if b.LoginFunc != nil {
		return b.LoginFunc(ctx, creds, simulation)
	}

	return b.Accounts, nil
}

func (b *Broker) Logout(ctx context.Context) error {
	b.record("Logout")
	return nil
}

func (b *Broker) FetchContracts(ctx context.Context) error {
	b.record("FetchContracts")
	return nil
}

func (b *Broker) ListAccounts(ctx context.Context) ([]eventmodels.Account, error) {
	b.record("ListAccounts")
	return b.Accounts, nil
}

func (b *Broker) Contract(ctx context.Context, code eventmodels.StockCode) (eventmodels.Contract, error) {
	b.record("Contract", code)

	b.mu.Lock()
	defer b.mu.Unlock()

	c, found := b.Contracts[code]
	if !found {
		return eventmodels.Contract{}, fmt.Errorf("mock: contract %s not found: %w", code, eventmodels.ErrLookup)
	}

	return c, nil
}

func (b *Broker) ListContracts(ctx context.Context, filter eventmodels.ContractFilter) ([]eventmodels.Contract, error) {
	b.record("ListContracts", filter)

	b.mu.Lock()
	defer b.mu.Unlock()

	var out []eventmodels.Contract
	for _, c := range b.Contracts {
		if filter.Exchange != "" && c.Exchange != filter.Exchange {
			continue
		}
		out = append(out, c)
	}

	return out, nil
}

func (b *Broker) Subscribe(ctx context.Context, req broker.SubscribeRequest) error {
	b.record("Subscribe", req)
	if b.SubscribeFunc != nil {
		return b.SubscribeFunc(ctx, req)
	}

	return nil
}

func (b *Broker) SetOnTick(cb broker.TickCallback) {
	b.record("SetOnTick")
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	b.onTick = cb
}

func (b *Broker) SetOnBidAsk(cb broker.BidAskCallback) {
	b.record("SetOnBidAsk")
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	b.onBidAsk = cb
}

func (b *Broker) SetOnQuote(cb broker.QuoteCallback) {
	b.record("SetOnQuote")
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	b.onQuote = cb
}

func (b *Broker) SetOnOrder(cb broker.OrderCallback) {
	b.record("SetOnOrder")
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	b.onOrder = cb
}

// Emit invokes the bound callback for ev synchronously, the way the SDK
// would from its own goroutine.
func (b *Broker) Emit(exchange eventmodels.Exchange, ev eventmodels.QuoteEvent) {
	b.cbMu.RLock()
	onTick, onBidAsk, onQuote := b.onTick, b.onBidAsk, b.onQuote
	b.cbMu.RUnlock()

	switch v := ev.(type) {
	case *eventmodels.Tick:
		if onTick != nil {
			onTick(exchange, v)
		}
	case *eventmodels.BidAsk:
		if onBidAsk != nil {
			onBidAsk(exchange, v)
		}
	case *eventmodels.Quote:
		if onQuote != nil {
			onQuote(exchange, v)
		}
	}
}

func (b *Broker) EmitOrder(trade *eventmodels.Trade) {
	b.cbMu.RLock()
	cb := b.onOrder
	b.cbMu.RUnlock()

	if cb != nil {
		cb(trade)
	}
}

func (b *Broker) PlaceOrder(ctx context.Context, contract eventmodels.Contract, req eventmodels.OrderRequest) (*eventmodels.Trade, error) {
	b.record("PlaceOrder", contract, req)
	if b.PlaceOrderFunc != nil {
		return b.PlaceOrderFunc(ctx, contract, req)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	trade := &eventmodels.Trade{
		Contract: contract,
		Order: eventmodels.Order{
			ID:        fmt.Sprintf("t%d", len(b.Trades)+1),
			Action:    req.Action,
			Price:     req.Price,
			Quantity:  req.Quantity,
			PriceType: req.PriceType,
			OrderType: req.OrderType,
			OrderLot:  req.OrderLot,
			OrderCond: req.OrderCond,
			AccountID: req.AccountID,
		},
		Status: eventmodels.OrderState{Status: eventmodels.OrderStatusPendingSubmit},
	}
	b.Trades = append(b.Trades, trade)

	return trade, nil
}

func (b *Broker) UpdateOrder(ctx context.Context, trade *eventmodels.Trade, req broker.UpdateOrderRequest) (*eventmodels.Trade, error) {
	b.record("UpdateOrder", trade, req)
	if b.UpdateOrderFunc != nil {
		return b.UpdateOrderFunc(ctx, trade, req)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if req.Price != nil {
		trade.Order.Price = *req.Price
	}

	if req.Quantity != nil {
		trade.Status.CancelQuantity = trade.Order.Quantity - *req.Quantity
	}

	return trade, nil
}

func (b *Broker) CancelOrder(ctx context.Context, trade *eventmodels.Trade) (*eventmodels.Trade, error) {
	b.record("CancelOrder", trade)
	if b.CancelOrderFunc != nil {
		return b.CancelOrderFunc(ctx, trade)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	trade.Status.Status = eventmodels.OrderStatusCancelled
	return trade, nil
}

func (b *Broker) UpdateStatus(ctx context.Context) error {
	b.record("UpdateStatus")
	if b.UpdateStatusFunc != nil {
		return b.UpdateStatusFunc(ctx)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range b.Trades {
		if t.Status.Status == eventmodels.OrderStatusPendingSubmit {
			t.Status.Status = eventmodels.OrderStatusSubmitted
		}
	}

	return nil
}

func (b *Broker) ListTrades(ctx context.Context) ([]*eventmodels.Trade, error) {
	b.record("ListTrades")

	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*eventmodels.Trade(nil), b.Trades...), nil
}

func (b *Broker) ListPositions(ctx context.Context, unit eventmodels.Unit) ([]eventmodels.Position, error) {
	b.record("ListPositions", unit)
	return b.Positions, nil
}

func (b *Broker) ListProfitLoss(ctx context.Context, begin, end time.Time) ([]eventmodels.ProfitLoss, error) {
	b.record("ListProfitLoss", begin, end)
	return b.PnL, nil
}

func (b *Broker) AccountBalance(ctx context.Context) (eventmodels.AccountBalance, error) {
	b.record("AccountBalance")
	return b.Balance, nil
}

func (b *Broker) Kbars(ctx context.Context, contract eventmodels.Contract, start, end time.Time) ([]eventmodels.Kbar, error) {
	b.record("Kbars", contract, start, end)
	return b.Bars, nil
}

func (b *Broker) Snapshots(ctx context.Context, contracts []eventmodels.Contract) ([]eventmodels.Snapshot, error) {
	b.record("Snapshots", contracts)

	out := make([]eventmodels.Snapshot, 0, len(contracts))
	for _, c := range contracts {
		ref, _ := c.Reference.Float64()
		out = append(out, eventmodels.Snapshot{Code: c.Code, Exchange: c.Exchange, Close: ref})
	}

	return out, nil
}

var _ broker.IBroker = (*Broker)(nil)
