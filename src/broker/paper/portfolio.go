package paper

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

type holding struct {
	shares  int64
	avgCost decimal.Decimal
	cond    eventmodels.StockOrderCond
}

// settle books a fill against cash and holdings. Must be called with mu held.
func (e *Exchange) settle(t *eventmodels.Trade, price decimal.Decimal, shares int64) error {
	code := t.Contract.Code
	notional := price.Mul(decimal.NewFromInt(shares))
	h := e.positions[code]

	switch t.Order.Action {
	case eventmodels.ActionBuy:
		if e.balance.LessThan(notional) {
			return fmt.Errorf("insufficient balance: need %s, have %s", notional, e.balance)
		}

		if h == nil {
			h = &holding{cond: t.Order.OrderCond}
			e.positions[code] = h
		}

		total := h.avgCost.Mul(decimal.NewFromInt(h.shares)).Add(notional)
		h.shares += shares
		h.avgCost = total.Div(decimal.NewFromInt(h.shares)).Round(4)
		e.balance = e.balance.Sub(notional)
	case eventmodels.ActionSell:
		if h == nil || h.shares < shares {
			held := int64(0)
			if h != nil {
				held = h.shares
			}
			return fmt.Errorf("insufficient position: need %d shares, have %d", shares, held)
		}

		pnl := price.Sub(h.avgCost).Mul(decimal.NewFromInt(shares))
		cost := h.avgCost.Mul(decimal.NewFromInt(shares))
		ratio := decimal.Zero
		if !cost.IsZero() {
			ratio = pnl.Div(cost).Round(4)
		}

		e.realized = append(e.realized, eventmodels.ProfitLoss{
			ID:         int64(len(e.realized)),
			Code:       code,
			Quantity:   shares,
			PNL:        pnl.Round(0),
			Date:       e.now().In(taipei).Format("2006-01-02"),
			EntryPrice: h.avgCost,
			CoverPrice: price,
			Pr:         ratio,
			Cond:       h.cond,
		})

		h.shares -= shares
		if h.shares == 0 {
			delete(e.positions, code)
		}

		e.balance = e.balance.Add(notional)
	default:
		return fmt.Errorf("unsupported action %s", t.Order.Action)
	}

	return nil
}

func (e *Exchange) ListPositions(ctx context.Context, unit eventmodels.Unit) ([]eventmodels.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loggedIn {
		return nil, fmt.Errorf("paper.ListPositions: %w", eventmodels.ErrNotLoggedIn)
	}

	codes := make([]eventmodels.StockCode, 0, len(e.positions))
	for code := range e.positions {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	positions := make([]eventmodels.Position, 0, len(codes))
	for i, code := range codes {
		h := e.positions[code]
		l := e.listings[code]

		quantity := h.shares
		if unit != eventmodels.UnitShare {
			quantity = h.shares / l.contract.Unit
		}

		positions = append(positions, eventmodels.Position{
			ID:        int64(i),
			Code:      code,
			Direction: eventmodels.ActionBuy,
			Quantity:  quantity,
			Price:     h.avgCost,
			LastPrice: l.last,
			PNL:       l.last.Sub(h.avgCost).Mul(decimal.NewFromInt(h.shares)).Round(0),
			Cond:      h.cond,
		})
	}

	return positions, nil
}

func (e *Exchange) ListProfitLoss(ctx context.Context, begin, end time.Time) ([]eventmodels.ProfitLoss, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loggedIn {
		return nil, fmt.Errorf("paper.ListProfitLoss: %w", eventmodels.ErrNotLoggedIn)
	}

	from := begin.Format("2006-01-02")
	to := end.Format("2006-01-02")

	var out []eventmodels.ProfitLoss
	for _, pl := range e.realized {
		if pl.Date >= from && pl.Date <= to {
			out = append(out, pl)
		}
	}

	return out, nil
}

func (e *Exchange) AccountBalance(ctx context.Context) (eventmodels.AccountBalance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loggedIn {
		return eventmodels.AccountBalance{}, fmt.Errorf("paper.AccountBalance: %w", eventmodels.ErrNotLoggedIn)
	}

	accountID := ""
	if len(e.accounts) > 0 {
		accountID = e.accounts[0].AccountID
	}

	return eventmodels.AccountBalance{
		AccountID:  accountID,
		Balance:    e.balance,
		Date:       e.now().In(taipei),
		Simulation: e.simulation,
	}, nil
}
