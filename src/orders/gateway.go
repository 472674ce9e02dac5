package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

type BrokerProvider interface {
	Broker() (broker.IBroker, error)
	Epoch() uint64
}

// Gateway submits orders and keeps every trade handle returned by Place, so
// that later updates and cancels act on the real handle rather than on a
// caller-supplied copy. The book only holds trades of the current session and
// is emptied when the session epoch changes.
type Gateway struct {
	session BrokerProvider

	mu    sync.Mutex
	epoch uint64
	book  map[string]*eventmodels.Trade
}

func NewGateway(session BrokerProvider) *Gateway {
	return &Gateway{
		session: session,
		epoch:   session.Epoch(),
		book:    make(map[string]*eventmodels.Trade),
	}
}

// Place fills defaults (Buy / LMT / ROD / Common / Cash), validates, submits
// and refreshes the status once. The status in the returned trade may lag
// the exchange; call ListTrades for a later view.
func (g *Gateway) Place(ctx context.Context, req eventmodels.OrderRequest) (*eventmodels.Trade, error) {
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("Gateway.Place: %w", err)
	}

	b, err := g.session.Broker()
	if err != nil {
		return nil, fmt.Errorf("Gateway.Place: %w", err)
	}

	contract, err := b.Contract(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("Gateway.Place: failed to resolve %s: %w", req.Code, err)
	}

	trade, err := b.PlaceOrder(ctx, contract, req)
	if err != nil {
		return nil, submissionError("Gateway.Place", err)
	}

	if trade == nil || trade.Order.ID == "" {
		return nil, fmt.Errorf("Gateway.Place: backend returned no trade id: %w", eventmodels.ErrSubmission)
	}

	g.store(trade)

	log.WithFields(log.Fields{
		"id":         trade.Order.ID,
		"code":       req.Code,
		"action":     req.Action,
		"price":      req.Price.String(),
		"quantity":   req.Quantity,
		"price_type": req.PriceType,
		"order_type": req.OrderType,
	}).Info("orders: placed")

	return g.refresh(ctx, b, trade), nil
}

func (g *Gateway) UpdatePrice(ctx context.Context, tradeID string, price decimal.Decimal) (*eventmodels.Trade, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("Gateway.UpdatePrice: price must be positive, got %s: %w", price, eventmodels.ErrValidation)
	}

	return g.update(ctx, "Gateway.UpdatePrice", tradeID, broker.UpdateOrderRequest{Price: &price})
}

// UpdateQuantity sets the new total order quantity. Exchanges only allow a
// working order to be reduced.
func (g *Gateway) UpdateQuantity(ctx context.Context, tradeID string, quantity int64) (*eventmodels.Trade, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("Gateway.UpdateQuantity: quantity must be positive, got %d: %w", quantity, eventmodels.ErrValidation)
	}

	return g.update(ctx, "Gateway.UpdateQuantity", tradeID, broker.UpdateOrderRequest{Quantity: &quantity})
}

func (g *Gateway) update(ctx context.Context, op, tradeID string, req broker.UpdateOrderRequest) (*eventmodels.Trade, error) {
	b, err := g.session.Broker()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	trade, err := g.Trade(tradeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := b.UpdateOrder(ctx, trade, req)
	if err != nil {
		return nil, submissionError(op, err)
	}

	g.store(updated)

	log.WithField("id", tradeID).Infof("orders: %s", op)

	return g.refresh(ctx, b, updated), nil
}

func (g *Gateway) Cancel(ctx context.Context, tradeID string) (*eventmodels.Trade, error) {
	b, err := g.session.Broker()
	if err != nil {
		return nil, fmt.Errorf("Gateway.Cancel: %w", err)
	}

	trade, err := g.Trade(tradeID)
	if err != nil {
		return nil, fmt.Errorf("Gateway.Cancel: %w", err)
	}

	cancelled, err := b.CancelOrder(ctx, trade)
	if err != nil {
		return nil, submissionError("Gateway.Cancel", err)
	}

	g.store(cancelled)

	log.WithField("id", tradeID).Info("orders: cancel requested")

	return g.refresh(ctx, b, cancelled), nil
}

// ListTrades refreshes order status and returns every trade the backend knows
// about for this session.
func (g *Gateway) ListTrades(ctx context.Context) ([]*eventmodels.Trade, error) {
	b, err := g.session.Broker()
	if err != nil {
		return nil, fmt.Errorf("Gateway.ListTrades: %w", err)
	}

	if err := b.UpdateStatus(ctx); err != nil {
		return nil, fmt.Errorf("Gateway.ListTrades: failed to update status: %w", err)
	}

	trades, err := b.ListTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("Gateway.ListTrades: %w", err)
	}

	for _, t := range trades {
		g.store(t)
	}

	return trades, nil
}

// Trade returns the handle stored for tradeID.
func (g *Gateway) Trade(tradeID string) (*eventmodels.Trade, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.syncEpoch()

	trade, found := g.book[tradeID]
	if !found {
		return nil, fmt.Errorf("trade %q was not placed in this session: %w", tradeID, eventmodels.ErrUnknownTrade)
	}

	return trade, nil
}

func (g *Gateway) store(trade *eventmodels.Trade) {
	if trade == nil || trade.Order.ID == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.syncEpoch()
	g.book[trade.Order.ID] = trade
}

// syncEpoch drops the book when the session has changed. g.mu must be held.
func (g *Gateway) syncEpoch() {
	epoch := g.session.Epoch()
	if epoch == g.epoch {
		return
	}

	if len(g.book) > 0 {
		log.Infof("orders: session changed, dropping %d trade handles", len(g.book))
	}

	g.book = make(map[string]*eventmodels.Trade)
	g.epoch = epoch
}

// refresh asks the backend to update order status and returns the latest
// known copy of trade. A failed refresh is logged and the given copy returned.
func (g *Gateway) refresh(ctx context.Context, b broker.IBroker, trade *eventmodels.Trade) *eventmodels.Trade {
	if err := b.UpdateStatus(ctx); err != nil {
		log.Warnf("orders: failed to update status: %v", err)
		return trade
	}

	trades, err := b.ListTrades(ctx)
	if err != nil {
		log.Warnf("orders: failed to list trades: %v", err)
		return trade
	}

	for _, t := range trades {
		if t != nil && t.Order.ID == trade.Order.ID {
			g.store(t)
			return t
		}
	}

	return trade
}

// submissionError keeps errors already in the taxonomy and files anything
// else the backend raises under ErrSubmission.
func submissionError(op string, err error) error {
	for _, known := range []error{eventmodels.ErrConnection, eventmodels.ErrLookup, eventmodels.ErrSubmission, eventmodels.ErrValidation} {
		if errors.Is(err, known) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return fmt.Errorf("%s: %v: %w", op, err, eventmodels.ErrSubmission)
}
