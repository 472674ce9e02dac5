package gateway

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

type loginRequestDTO struct {
	APIKey        string        `json:"api_key"`
	SecretKey     string        `json:"secret_key"`
	FetchContract bool          `json:"fetch_contract"`
	Simulation    bool          `json:"simulation"`
	CA            *caRequestDTO `json:"ca,omitempty"`
}

type caRequestDTO struct {
	Path     string `json:"ca_path"`
	Password string `json:"ca_passwd"`
	PersonID string `json:"person_id"`
}

type loginResponseDTO struct {
	Token    string                `json:"token"`
	Accounts []eventmodels.Account `json:"accounts"`
}

type errorResponseDTO struct {
	Error string `json:"error"`
}

type subscribeRequestDTO struct {
	Code        eventmodels.StockCode `json:"code"`
	Exchange    eventmodels.Exchange  `json:"exchange"`
	QuoteType   eventmodels.QuoteType `json:"quote_type"`
	IntradayOdd bool                  `json:"intraday_odd"`
}

type placeOrderRequestDTO struct {
	Code      eventmodels.StockCode      `json:"code"`
	Exchange  eventmodels.Exchange       `json:"exchange"`
	Price     decimal.Decimal            `json:"price"`
	Quantity  int64                      `json:"quantity"`
	Action    eventmodels.Action         `json:"action"`
	PriceType eventmodels.StockPriceType `json:"price_type"`
	OrderType eventmodels.OrderType      `json:"order_type"`
	OrderLot  eventmodels.StockOrderLot  `json:"order_lot"`
	OrderCond eventmodels.StockOrderCond `json:"order_cond"`
	AccountID string                     `json:"account_id,omitempty"`
}

type updateOrderRequestDTO struct {
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity *int64           `json:"qty,omitempty"`
}

type snapshotsRequestDTO struct {
	Codes []eventmodels.StockCode `json:"codes"`
}

// streamMessageDTO is one frame on the push stream. Data is decoded according
// to Type.
type streamMessageDTO struct {
	Type     string               `json:"type"`
	Exchange eventmodels.Exchange `json:"exchange"`
	Data     json.RawMessage      `json:"data"`
}

const (
	streamTypeTick   = "tick"
	streamTypeBidAsk = "bidask"
	streamTypeQuote  = "quote"
	streamTypeOrder  = "order"
)
