package paper

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/eventpubsub"
)

// trading session in Taipei local time
const (
	sessionOpenMinute  = 9 * 60
	sessionCloseMinute = 13*60 + 30
)

func (e *Exchange) Subscribe(ctx context.Context, req broker.SubscribeRequest) error {
	if err := req.QuoteType.Validate(); err != nil {
		return fmt.Errorf("paper.Subscribe: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.lookup(req.Contract.Code); err != nil {
		return fmt.Errorf("paper.Subscribe: %w", err)
	}

	key := subscriptionKey{
		code:        req.Contract.Code,
		quoteType:   req.QuoteType,
		intradayOdd: req.IntradayOdd && req.QuoteType.SupportsIntradayOdd(),
	}

	e.subscriptions[key] = struct{}{}

	log.WithFields(log.Fields{
		"code":         key.code,
		"quote_type":   key.quoteType,
		"intraday_odd": key.intradayOdd,
	}).Debug("paper: subscribed")

	return nil
}

// Subscribed reports whether a subscription exists, for tests and diagnostics.
func (e *Exchange) Subscribed(code eventmodels.StockCode, quoteType eventmodels.QuoteType, intradayOdd bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, found := e.subscriptions[subscriptionKey{code: code, quoteType: quoteType, intradayOdd: intradayOdd}]
	return found
}

// Push injects a quote event as if it came off the exchange feed.
func (e *Exchange) Push(exchange eventmodels.Exchange, ev eventmodels.QuoteEvent) {
	switch v := ev.(type) {
	case *eventmodels.Tick:
		e.bus.Publish(eventpubsub.TickEvent, pushedTick{exchange, v})
	case *eventmodels.BidAsk:
		e.bus.Publish(eventpubsub.BidAskEvent, pushedBidAsk{exchange, v})
	case *eventmodels.Quote:
		e.bus.Publish(eventpubsub.QuoteEvent, pushedQuote{exchange, v})
	default:
		log.Warnf("paper: unsupported quote event %T", ev)
	}
}

type pushedTick struct {
	exchange eventmodels.Exchange
	tick     *eventmodels.Tick
}

type pushedBidAsk struct {
	exchange eventmodels.Exchange
	bidask   *eventmodels.BidAsk
}

type pushedQuote struct {
	exchange eventmodels.Exchange
	quote    *eventmodels.Quote
}

func (e *Exchange) deliverTick(ev pushedTick) {
	e.cbMu.RLock()
	cb := e.onTick
	e.cbMu.RUnlock()

	if cb != nil {
		cb(ev.exchange, ev.tick)
	}
}

func (e *Exchange) deliverBidAsk(ev pushedBidAsk) {
	e.cbMu.RLock()
	cb := e.onBidAsk
	e.cbMu.RUnlock()

	if cb != nil {
		cb(ev.exchange, ev.bidask)
	}
}

func (e *Exchange) deliverQuote(ev pushedQuote) {
	e.cbMu.RLock()
	cb := e.onQuote
	e.cbMu.RUnlock()

	if cb != nil {
		cb(ev.exchange, ev.quote)
	}
}

func (e *Exchange) deliverOrder(trade *eventmodels.Trade) {
	e.cbMu.RLock()
	cb := e.onOrder
	e.cbMu.RUnlock()

	if cb != nil {
		cb(trade)
	}
}

func (e *Exchange) runPump(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Step()
		}
	}
}

// Step advances every subscribed instrument by one price move and publishes
// the matching events.
func (e *Exchange) Step() {
	e.mu.Lock()
	now := e.now().In(taipei)

	moved := make(map[eventmodels.StockCode]int64)
	var events []eventmodels.QuoteEvent
	var exchanges []eventmodels.Exchange
	for key := range e.subscriptions {
		l := e.listings[key.code]

		volume, ok := moved[key.code]
		if !ok {
			volume = e.move(l)
			moved[key.code] = volume
		}

		switch key.quoteType {
		case eventmodels.QuoteTypeTick:
			events = append(events, e.buildTick(l, now, volume, key.intradayOdd))
		case eventmodels.QuoteTypeBidAsk:
			events = append(events, e.buildBidAsk(l, now, key.intradayOdd))
		case eventmodels.QuoteTypeQuote:
			events = append(events, e.buildQuote(l, now, volume))
		}

		exchanges = append(exchanges, l.contract.Exchange)
	}
	e.mu.Unlock()

	for i, ev := range events {
		e.Push(exchanges[i], ev)
	}
}

// move walks the last price by at most one tick and returns the traded volume.
// Must be called with mu held.
func (e *Exchange) move(l *listing) int64 {
	size := tickSize(l.last)
	step := decimal.NewFromInt(int64(e.rnd.Intn(3) - 1)).Mul(size)
	l.last = clamp(l.last.Add(step), l.contract.LimitDown, l.contract.LimitUp)

	if l.last.GreaterThan(l.high) {
		l.high = l.last
	}

	if l.last.LessThan(l.low) {
		l.low = l.last
	}

	volume := int64(e.rnd.Intn(20) + 1)
	l.totalVolume += volume
	l.totalAmount = l.totalAmount.Add(l.last.Mul(decimal.NewFromInt(volume * l.contract.Unit)))
	return volume
}

func (e *Exchange) buildTick(l *listing, now time.Time, volume int64, intradayOdd bool) *eventmodels.Tick {
	chg := l.last.Sub(l.contract.Reference)
	tickType := eventmodels.TickTypeBuy
	if chg.IsNegative() {
		tickType = eventmodels.TickTypeSell
	}

	return &eventmodels.Tick{
		Code:        l.contract.Code,
		Datetime:    now,
		Open:        l.open,
		Close:       l.last,
		High:        l.high,
		Low:         l.low,
		Amount:      l.last.Mul(decimal.NewFromInt(volume)),
		TotalAmount: l.totalAmount,
		Volume:      volume,
		TotalVolume: l.totalVolume,
		TickType:    tickType,
		PriceChg:    chg,
		PctChg:      pctChange(chg, l.contract.Reference),
		Simtrade:    !inSession(now),
		IntradayOdd: intradayOdd,
	}
}

func (e *Exchange) buildBidAsk(l *listing, now time.Time, intradayOdd bool) *eventmodels.BidAsk {
	bidPrice, bidVolume, askPrice, askVolume := e.ladder(l)
	return &eventmodels.BidAsk{
		Code:        l.contract.Code,
		Datetime:    now,
		BidPrice:    bidPrice,
		BidVolume:   bidVolume,
		AskPrice:    askPrice,
		AskVolume:   askVolume,
		Simtrade:    !inSession(now),
		IntradayOdd: intradayOdd,
	}
}

func (e *Exchange) buildQuote(l *listing, now time.Time, volume int64) *eventmodels.Quote {
	bidPrice, bidVolume, askPrice, askVolume := e.ladder(l)
	return &eventmodels.Quote{
		Code:        l.contract.Code,
		Datetime:    now,
		Open:        l.open,
		High:        l.high,
		Low:         l.low,
		Close:       l.last,
		Volume:      volume,
		TotalVolume: l.totalVolume,
		Amount:      l.last.Mul(decimal.NewFromInt(volume)),
		TotalAmount: l.totalAmount,
		TickType:    eventmodels.TickTypeBuy,
		BidPrice:    bidPrice,
		BidVolume:   bidVolume,
		AskPrice:    askPrice,
		AskVolume:   askVolume,
		Simtrade:    !inSession(now),
	}
}

// ladder builds five levels on each side of the last price.
func (e *Exchange) ladder(l *listing) ([]decimal.Decimal, []int64, []decimal.Decimal, []int64) {
	const depth = 5

	bidPrice := make([]decimal.Decimal, 0, depth)
	bidVolume := make([]int64, 0, depth)
	askPrice := make([]decimal.Decimal, 0, depth)
	askVolume := make([]int64, 0, depth)

	bid := l.last
	ask := l.last.Add(tickSize(l.last))
	for i := 0; i < depth; i++ {
		bidPrice = append(bidPrice, bid)
		bidVolume = append(bidVolume, int64(e.rnd.Intn(500)+1))
		askPrice = append(askPrice, ask)
		askVolume = append(askVolume, int64(e.rnd.Intn(500)+1))

		bid = bid.Sub(tickSize(bid))
		ask = ask.Add(tickSize(ask))
	}

	return bidPrice, bidVolume, askPrice, askVolume
}

func pctChange(chg, reference decimal.Decimal) decimal.Decimal {
	if reference.IsZero() {
		return decimal.Zero
	}

	return chg.Div(reference).Mul(decimal.NewFromInt(100)).Round(2)
}

func inSession(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}

	minute := t.Hour()*60 + t.Minute()
	return minute >= sessionOpenMinute && minute <= sessionCloseMinute
}
