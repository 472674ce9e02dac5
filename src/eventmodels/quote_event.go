package eventmodels

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteEvent is a pushed market-data message. The instrument code travels
// inside the payload; handlers demultiplex on it.
type QuoteEvent interface {
	GetCode() StockCode
	GetQuoteType() QuoteType
	GetDatetime() time.Time
}

// IsNilQuoteEvent reports whether ev carries no payload, including a typed nil
// pointer wrapped in the interface.
func IsNilQuoteEvent(ev QuoteEvent) bool {
	switch e := ev.(type) {
	case nil:
		return true
	case *Tick:
		return e == nil
	case *BidAsk:
		return e == nil
	case *Quote:
		return e == nil
	default:
		return false
	}
}

type TickType int

const (
	TickTypeNone TickType = 0
	TickTypeBuy  TickType = 1
	TickTypeSell TickType = 2
)

type Tick struct {
	Code        StockCode       `json:"code"`
	Datetime    time.Time       `json:"datetime"`
	Open        decimal.Decimal `json:"open"`
	Close       decimal.Decimal `json:"close"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Amount      decimal.Decimal `json:"amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Volume      int64           `json:"volume"`
	TotalVolume int64           `json:"total_volume"`
	TickType    TickType        `json:"tick_type"`
	PriceChg    decimal.Decimal `json:"price_chg"`
	PctChg      decimal.Decimal `json:"pct_chg"`
	Simtrade    bool            `json:"simtrade"`
	IntradayOdd bool            `json:"intraday_odd"`
}

func (t *Tick) GetCode() StockCode {
	if t == nil {
		return ""
	}
	return t.Code
}

func (t *Tick) GetQuoteType() QuoteType { return QuoteTypeTick }

func (t *Tick) GetDatetime() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Datetime
}

type BidAsk struct {
	Code        StockCode         `json:"code"`
	Datetime    time.Time         `json:"datetime"`
	BidPrice    []decimal.Decimal `json:"bid_price"`
	BidVolume   []int64           `json:"bid_volume"`
	AskPrice    []decimal.Decimal `json:"ask_price"`
	AskVolume   []int64           `json:"ask_volume"`
	Simtrade    bool              `json:"simtrade"`
	IntradayOdd bool              `json:"intraday_odd"`
}

func (b *BidAsk) GetCode() StockCode {
	if b == nil {
		return ""
	}
	return b.Code
}

func (b *BidAsk) GetQuoteType() QuoteType { return QuoteTypeBidAsk }

func (b *BidAsk) GetDatetime() time.Time {
	if b == nil {
		return time.Time{}
	}
	return b.Datetime
}

type Quote struct {
	Code        StockCode         `json:"code"`
	Datetime    time.Time         `json:"datetime"`
	Open        decimal.Decimal   `json:"open"`
	High        decimal.Decimal   `json:"high"`
	Low         decimal.Decimal   `json:"low"`
	Close       decimal.Decimal   `json:"close"`
	Volume      int64             `json:"volume"`
	TotalVolume int64             `json:"total_volume"`
	Amount      decimal.Decimal   `json:"amount"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	TickType    TickType          `json:"tick_type"`
	BidPrice    []decimal.Decimal `json:"bid_price"`
	BidVolume   []int64           `json:"bid_volume"`
	AskPrice    []decimal.Decimal `json:"ask_price"`
	AskVolume   []int64           `json:"ask_volume"`
	Simtrade    bool              `json:"simtrade"`
}

func (q *Quote) GetCode() StockCode {
	if q == nil {
		return ""
	}
	return q.Code
}

func (q *Quote) GetQuoteType() QuoteType { return QuoteTypeQuote }

func (q *Quote) GetDatetime() time.Time {
	if q == nil {
		return time.Time{}
	}
	return q.Datetime
}
