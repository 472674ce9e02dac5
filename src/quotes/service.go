package quotes

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

type BrokerProvider interface {
	Broker() (broker.IBroker, error)
}

// Ack confirms that a subscribe request reached the backend. It says nothing
// about whether data will follow.
type Ack struct {
	Code        eventmodels.StockCode `json:"code"`
	QuoteType   eventmodels.QuoteType `json:"quote_type"`
	IntradayOdd bool                  `json:"intraday_odd"`
	Exchange    eventmodels.Exchange  `json:"exchange"`
	RequestedAt time.Time             `json:"requested_at"`
}

func (a Ack) String() string {
	return fmt.Sprintf("subscribed %s %s on %s (intraday_odd=%v)", a.QuoteType, a.Code, a.Exchange, a.IntradayOdd)
}

type Service struct {
	session BrokerProvider
	now     func() time.Time
}

func NewService(session BrokerProvider) *Service {
	return &Service{session: session, now: time.Now}
}

// Subscribe issues exactly one backend subscribe call. id may be a string or
// an integral number; both resolve to the same instrument. The odd-lot flag
// is dropped for the quote kind, which has no intraday odd-lot feed.
func (s *Service) Subscribe(ctx context.Context, id interface{}, quoteType eventmodels.QuoteType, intradayOdd bool) (Ack, error) {
	if err := quoteType.Validate(); err != nil {
		return Ack{}, fmt.Errorf("quotes.Subscribe: %w", err)
	}

	code, err := eventmodels.NewStockCode(id)
	if err != nil {
		return Ack{}, fmt.Errorf("quotes.Subscribe: %w", err)
	}

	b, err := s.session.Broker()
	if err != nil {
		return Ack{}, fmt.Errorf("quotes.Subscribe: %w", err)
	}

	contract, err := b.Contract(ctx, code)
	if err != nil {
		return Ack{}, fmt.Errorf("quotes.Subscribe: failed to resolve %s: %w", code, err)
	}

	if !quoteType.SupportsIntradayOdd() {
		intradayOdd = false
	}

	req := broker.SubscribeRequest{
		Contract:    contract,
		QuoteType:   quoteType,
		IntradayOdd: intradayOdd,
	}

	if err := b.Subscribe(ctx, req); err != nil {
		return Ack{}, fmt.Errorf("quotes.Subscribe: %s %s: %w", quoteType, code, err)
	}

	ack := Ack{
		Code:        code,
		QuoteType:   quoteType,
		IntradayOdd: intradayOdd,
		Exchange:    contract.Exchange,
		RequestedAt: s.now(),
	}

	log.WithFields(log.Fields{
		"code":         code,
		"quote_type":   quoteType,
		"intraday_odd": intradayOdd,
	}).Info("quotes: subscription requested")

	return ack, nil
}
