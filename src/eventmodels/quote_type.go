package eventmodels

import (
	"fmt"
	"strings"
)

type QuoteType string

const (
	QuoteTypeTick   QuoteType = "tick"
	QuoteTypeBidAsk QuoteType = "bidask"
	QuoteTypeQuote  QuoteType = "quote"
)

var QuoteTypes = []QuoteType{QuoteTypeTick, QuoteTypeBidAsk, QuoteTypeQuote}

func (t QuoteType) Validate() error {
	switch t {
	case QuoteTypeTick, QuoteTypeBidAsk, QuoteTypeQuote:
		return nil
	default:
		return fmt.Errorf("invalid quote type: %s: %w", t, ErrValidation)
	}
}

// SupportsIntradayOdd reports whether the odd-lot flag has meaning for the
// quote type. Consolidated quotes have no intraday odd-lot board.
func (t QuoteType) SupportsIntradayOdd() bool {
	return t == QuoteTypeTick || t == QuoteTypeBidAsk
}

func ParseQuoteType(s string) (QuoteType, error) {
	t := QuoteType(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}

	return t, nil
}
