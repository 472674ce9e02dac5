package eventmodels

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID        string          `json:"id"`
	Seqno     string          `json:"seqno"`
	Ordno     string          `json:"ordno"`
	Action    Action          `json:"action"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	PriceType StockPriceType  `json:"price_type"`
	OrderType OrderType       `json:"order_type"`
	OrderLot  StockOrderLot   `json:"order_lot"`
	OrderCond StockOrderCond  `json:"order_cond"`
	AccountID string          `json:"account_id"`
}

type Deal struct {
	Seq      string          `json:"seq"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Ts       time.Time       `json:"ts"`
}

type OrderState struct {
	Status         OrderStatus     `json:"status"`
	StatusCode     string          `json:"status_code"`
	Msg            string          `json:"msg"`
	OrderDatetime  time.Time       `json:"order_datetime"`
	ModifiedPrice  decimal.Decimal `json:"modified_price"`
	ModifiedTime   *time.Time      `json:"modified_time,omitempty"`
	DealQuantity   int64           `json:"deal_quantity"`
	CancelQuantity int64           `json:"cancel_quantity"`
	Deals          []Deal          `json:"deals"`
}

// Trade is the handle returned by order placement. Updates and cancels must be
// issued against the same handle.
type Trade struct {
	Contract Contract   `json:"contract"`
	Order    Order      `json:"order"`
	Status   OrderState `json:"status"`
}

func (t *Trade) GetID() string {
	return t.Order.ID
}

// RemainingQuantity is what is still working on the book.
func (t *Trade) RemainingQuantity() int64 {
	remaining := t.Order.Quantity - t.Status.DealQuantity - t.Status.CancelQuantity
	if remaining < 0 {
		return 0
	}

	return remaining
}
