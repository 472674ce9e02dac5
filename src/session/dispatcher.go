package session

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

type QuoteHandler func(exchange eventmodels.Exchange, ev eventmodels.QuoteEvent)

type OrderHandler func(trade *eventmodels.Trade)

// Dispatcher holds one handler per quote kind. Registering a handler replaces
// the previous one for that kind; there is no fan-out. Handlers run on the
// backend's push goroutine, possibly concurrently with tool calls and with
// each other, and must demultiplex on the instrument code inside the event.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[eventmodels.QuoteType]QuoteHandler
	onOrder  OrderHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[eventmodels.QuoteType]QuoteHandler),
	}
}

func (d *Dispatcher) Register(quoteType eventmodels.QuoteType, handler QuoteHandler) error {
	if err := quoteType.Validate(); err != nil {
		return fmt.Errorf("Dispatcher.Register: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, found := d.handlers[quoteType]; found {
		log.Debugf("dispatcher: replacing %s handler", quoteType)
	}

	d.handlers[quoteType] = handler
	return nil
}

func (d *Dispatcher) OnTick(handler func(exchange eventmodels.Exchange, tick *eventmodels.Tick)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventmodels.QuoteTypeTick] = func(exchange eventmodels.Exchange, ev eventmodels.QuoteEvent) {
		if tick, ok := ev.(*eventmodels.Tick); ok && tick != nil {
			handler(exchange, tick)
		}
	}
}

func (d *Dispatcher) OnBidAsk(handler func(exchange eventmodels.Exchange, bidask *eventmodels.BidAsk)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventmodels.QuoteTypeBidAsk] = func(exchange eventmodels.Exchange, ev eventmodels.QuoteEvent) {
		if bidask, ok := ev.(*eventmodels.BidAsk); ok && bidask != nil {
			handler(exchange, bidask)
		}
	}
}

func (d *Dispatcher) OnQuote(handler func(exchange eventmodels.Exchange, quote *eventmodels.Quote)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventmodels.QuoteTypeQuote] = func(exchange eventmodels.Exchange, ev eventmodels.QuoteEvent) {
		if quote, ok := ev.(*eventmodels.Quote); ok && quote != nil {
			handler(exchange, quote)
		}
	}
}

func (d *Dispatcher) OnOrder(handler OrderHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onOrder = handler
}

func (d *Dispatcher) Registered(quoteType eventmodels.QuoteType) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, found := d.handlers[quoteType]
	return found
}

// Dispatch routes ev to the handler for its kind. The lock is released before
// the handler runs so a slow handler never blocks registration or subscribe.
func (d *Dispatcher) Dispatch(exchange eventmodels.Exchange, ev eventmodels.QuoteEvent) {
	if eventmodels.IsNilQuoteEvent(ev) {
		return
	}

	d.mu.RLock()
	handler := d.handlers[ev.GetQuoteType()]
	d.mu.RUnlock()

	if handler == nil {
		log.Debugf("dispatcher: no %s handler, dropping event for %s", ev.GetQuoteType(), ev.GetCode())
		return
	}

	handler(exchange, ev)
}

func (d *Dispatcher) DispatchOrder(trade *eventmodels.Trade) {
	if trade == nil {
		return
	}

	d.mu.RLock()
	handler := d.onOrder
	d.mu.RUnlock()

	if handler == nil {
		return
	}

	handler(trade)
}

// Bind points the backend's push callbacks at this dispatcher.
func (d *Dispatcher) Bind(b broker.IBroker) {
	b.SetOnTick(func(exchange eventmodels.Exchange, tick *eventmodels.Tick) {
		d.Dispatch(exchange, tick)
	})

	b.SetOnBidAsk(func(exchange eventmodels.Exchange, bidask *eventmodels.BidAsk) {
		d.Dispatch(exchange, bidask)
	})

	b.SetOnQuote(func(exchange eventmodels.Exchange, quote *eventmodels.Quote) {
		d.Dispatch(exchange, quote)
	})

	b.SetOnOrder(d.DispatchOrder)
}
