package paper

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/eventpubsub"
)

func (e *Exchange) PlaceOrder(ctx context.Context, contract eventmodels.Contract, req eventmodels.OrderRequest) (*eventmodels.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.lookup(contract.Code)
	if err != nil {
		return nil, fmt.Errorf("paper.PlaceOrder: %w", err)
	}

	if len(e.accounts) > 0 && !e.accounts[0].Signed {
		return nil, fmt.Errorf("paper.PlaceOrder: account not signed, activate CA first: %w", eventmodels.ErrSubmission)
	}

	if req.PriceType == eventmodels.StockPriceTypeLimit {
		if req.Price.LessThan(l.contract.LimitDown) || req.Price.GreaterThan(l.contract.LimitUp) {
			return nil, fmt.Errorf("paper.PlaceOrder: price %s outside limits [%s, %s]: %w", req.Price, l.contract.LimitDown, l.contract.LimitUp, eventmodels.ErrSubmission)
		}

		if !req.Price.Mod(tickSize(req.Price)).IsZero() {
			return nil, fmt.Errorf("paper.PlaceOrder: price %s is not on the tick grid: %w", req.Price, eventmodels.ErrSubmission)
		}
	}

	accountID := req.AccountID
	if accountID == "" && len(e.accounts) > 0 {
		accountID = e.accounts[0].AccountID
	}

	e.seqno++
	trade := &eventmodels.Trade{
		Contract: l.contract,
		Order: eventmodels.Order{
			ID:        strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
			Seqno:     fmt.Sprintf("%06d", e.seqno),
			Action:    req.Action,
			Price:     req.Price,
			Quantity:  req.Quantity,
			PriceType: req.PriceType,
			OrderType: req.OrderType,
			OrderLot:  req.OrderLot,
			OrderCond: req.OrderCond,
			AccountID: accountID,
		},
		Status: eventmodels.OrderState{
			Status:        eventmodels.OrderStatusPendingSubmit,
			OrderDatetime: e.now().In(taipei),
		},
	}

	e.trades[trade.Order.ID] = trade
	e.tradeIDs = append(e.tradeIDs, trade.Order.ID)

	log.WithFields(log.Fields{
		"id":       trade.Order.ID,
		"code":     contract.Code,
		"action":   req.Action,
		"price":    req.Price.String(),
		"quantity": req.Quantity,
	}).Info("paper: order accepted")

	e.publishOrder(trade)
	return cloneTrade(trade), nil
}

func (e *Exchange) UpdateOrder(ctx context.Context, trade *eventmodels.Trade, req broker.UpdateOrderRequest) (*eventmodels.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.workingTrade(trade)
	if err != nil {
		return nil, fmt.Errorf("paper.UpdateOrder: %w", err)
	}

	modified := e.now().In(taipei)

	if req.Price != nil {
		if t.Order.PriceType != eventmodels.StockPriceTypeLimit {
			return nil, fmt.Errorf("paper.UpdateOrder: only limit orders can change price: %w", eventmodels.ErrSubmission)
		}

		price := *req.Price
		if price.LessThan(t.Contract.LimitDown) || price.GreaterThan(t.Contract.LimitUp) {
			return nil, fmt.Errorf("paper.UpdateOrder: price %s outside limits [%s, %s]: %w", price, t.Contract.LimitDown, t.Contract.LimitUp, eventmodels.ErrSubmission)
		}

		t.Order.Price = price
		t.Status.ModifiedPrice = price
		t.Status.ModifiedTime = &modified
	}

	if req.Quantity != nil {
		qty := *req.Quantity
		if qty >= t.Order.Quantity-t.Status.CancelQuantity {
			return nil, fmt.Errorf("paper.UpdateOrder: quantity can only be reduced, got %d: %w", qty, eventmodels.ErrSubmission)
		}

		if qty < t.Status.DealQuantity {
			return nil, fmt.Errorf("paper.UpdateOrder: quantity %d below filled %d: %w", qty, t.Status.DealQuantity, eventmodels.ErrSubmission)
		}

		t.Status.CancelQuantity = t.Order.Quantity - qty
		t.Status.ModifiedTime = &modified
		if t.RemainingQuantity() == 0 {
			t.Status.Status = eventmodels.OrderStatusFilled
			if t.Status.DealQuantity == 0 {
				t.Status.Status = eventmodels.OrderStatusCancelled
			}
		}
	}

	e.publishOrder(t)
	return cloneTrade(t), nil
}

func (e *Exchange) CancelOrder(ctx context.Context, trade *eventmodels.Trade) (*eventmodels.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.workingTrade(trade)
	if err != nil {
		return nil, fmt.Errorf("paper.CancelOrder: %w", err)
	}

	t.Status.CancelQuantity += t.RemainingQuantity()
	t.Status.Status = eventmodels.OrderStatusCancelled
	modified := e.now().In(taipei)
	t.Status.ModifiedTime = &modified

	e.publishOrder(t)
	return cloneTrade(t), nil
}

// workingTrade resolves the exchange's copy of a trade. Must be called with mu held.
func (e *Exchange) workingTrade(trade *eventmodels.Trade) (*eventmodels.Trade, error) {
	if !e.loggedIn {
		return nil, eventmodels.ErrNotLoggedIn
	}

	if trade == nil {
		return nil, fmt.Errorf("nil trade: %w", eventmodels.ErrUnknownTrade)
	}

	t, found := e.trades[trade.Order.ID]
	if !found {
		return nil, fmt.Errorf("trade %s: %w", trade.Order.ID, eventmodels.ErrUnknownTrade)
	}

	if !t.Status.Status.IsWorking() {
		return nil, fmt.Errorf("trade %s is %s: %w", t.Order.ID, t.Status.Status, eventmodels.ErrSubmission)
	}

	return t, nil
}

// UpdateStatus moves pending orders onto the book and matches working orders
// against the last price.
func (e *Exchange) UpdateStatus(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loggedIn {
		return fmt.Errorf("paper.UpdateStatus: %w", eventmodels.ErrNotLoggedIn)
	}

	for _, id := range e.tradeIDs {
		t := e.trades[id]
		before := t.Status.Status

		switch t.Status.Status {
		case eventmodels.OrderStatusPendingSubmit, eventmodels.OrderStatusPreSubmitted:
			t.Status.Status = eventmodels.OrderStatusSubmitted
			t.Order.Ordno = strings.ToUpper(t.Order.ID[:5])
			e.match(t)
		case eventmodels.OrderStatusSubmitted, eventmodels.OrderStatusFilling:
			e.match(t)
		}

		if t.Status.Status != before {
			e.publishOrder(t)
		}
	}

	return nil
}

// match fills a working order in full at the last price when it crosses.
// Must be called with mu held.
func (e *Exchange) match(t *eventmodels.Trade) {
	l := e.listings[t.Contract.Code]
	remaining := t.RemainingQuantity()
	if remaining == 0 {
		return
	}

	crosses := t.Order.PriceType == eventmodels.StockPriceTypeMarket ||
		(t.Order.Action == eventmodels.ActionBuy && t.Order.Price.GreaterThanOrEqual(l.last)) ||
		(t.Order.Action == eventmodels.ActionSell && t.Order.Price.LessThanOrEqual(l.last))

	if !crosses {
		if t.Order.OrderType == eventmodels.OrderTypeIOC || t.Order.OrderType == eventmodels.OrderTypeFOK {
			t.Status.CancelQuantity += remaining
			t.Status.Status = eventmodels.OrderStatusCancelled
		}
		return
	}

	shares := remaining * sharesPerUnit(t)
	if err := e.settle(t, l.last, shares); err != nil {
		t.Status.Status = eventmodels.OrderStatusFailed
		t.Status.Msg = err.Error()
		return
	}

	t.Status.DealQuantity += remaining
	t.Status.Deals = append(t.Status.Deals, eventmodels.Deal{
		Seq:      fmt.Sprintf("%06d", len(t.Status.Deals)+1),
		Price:    l.last,
		Quantity: remaining,
		Ts:       e.now().In(taipei),
	})

	if t.RemainingQuantity() == 0 {
		t.Status.Status = eventmodels.OrderStatusFilled
	} else {
		t.Status.Status = eventmodels.OrderStatusFilling
	}
}

func sharesPerUnit(t *eventmodels.Trade) int64 {
	if t.Order.OrderLot == eventmodels.StockOrderLotCommon || t.Order.OrderLot == eventmodels.StockOrderLotFixing {
		return t.Contract.Unit
	}

	return 1
}

func (e *Exchange) ListTrades(ctx context.Context) ([]*eventmodels.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loggedIn {
		return nil, fmt.Errorf("paper.ListTrades: %w", eventmodels.ErrNotLoggedIn)
	}

	trades := make([]*eventmodels.Trade, 0, len(e.tradeIDs))
	for _, id := range e.tradeIDs {
		trades = append(trades, cloneTrade(e.trades[id]))
	}

	return trades, nil
}

// publishOrder must be called with mu held.
func (e *Exchange) publishOrder(t *eventmodels.Trade) {
	e.bus.Publish(eventpubsub.OrderEvent, cloneTrade(t))
}

func cloneTrade(t *eventmodels.Trade) *eventmodels.Trade {
	out := *t
	out.Status.Deals = append([]eventmodels.Deal(nil), t.Status.Deals...)
	if t.Status.ModifiedTime != nil {
		modified := *t.Status.ModifiedTime
		out.Status.ModifiedTime = &modified
	}

	return &out
}
