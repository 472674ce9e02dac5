package eventmodels

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type OrderRequest struct {
	Code      StockCode       `json:"code"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Action    Action          `json:"action"`
	PriceType StockPriceType  `json:"price_type"`
	OrderType OrderType       `json:"order_type"`
	OrderLot  StockOrderLot   `json:"order_lot"`
	OrderCond StockOrderCond  `json:"order_cond"`
	AccountID string          `json:"account_id,omitempty"`
}

// ApplyDefaults fills unset fields with Buy / LMT / ROD / Common / Cash.
func (r *OrderRequest) ApplyDefaults() {
	if r.Action == "" {
		r.Action = ActionBuy
	}

	if r.PriceType == "" {
		r.PriceType = StockPriceTypeLimit
	}

	if r.OrderType == "" {
		r.OrderType = OrderTypeROD
	}

	if r.OrderLot == "" {
		r.OrderLot = StockOrderLotCommon
	}

	if r.OrderCond == "" {
		r.OrderCond = StockOrderCondCash
	}
}

func (r *OrderRequest) Validate() error {
	if r.Code == "" {
		return fmt.Errorf("OrderRequest: missing code: %w", ErrValidation)
	}

	if r.Quantity <= 0 {
		return fmt.Errorf("OrderRequest: quantity must be positive, got %d: %w", r.Quantity, ErrValidation)
	}

	if err := r.Action.Validate(); err != nil {
		return fmt.Errorf("OrderRequest: %w", err)
	}

	if err := r.PriceType.Validate(); err != nil {
		return fmt.Errorf("OrderRequest: %w", err)
	}

	if err := r.OrderType.Validate(); err != nil {
		return fmt.Errorf("OrderRequest: %w", err)
	}

	if err := r.OrderLot.Validate(); err != nil {
		return fmt.Errorf("OrderRequest: %w", err)
	}

	if err := r.OrderCond.Validate(); err != nil {
		return fmt.Errorf("OrderRequest: %w", err)
	}

	if r.PriceType == StockPriceTypeLimit && !r.Price.IsPositive() {
		return fmt.Errorf("OrderRequest: limit price must be positive, got %s: %w", r.Price, ErrValidation)
	}

	if r.PriceType == StockPriceTypeMarket && r.OrderType == OrderTypeROD {
		return fmt.Errorf("OrderRequest: market orders must be IOC or FOK: %w", ErrValidation)
	}

	return nil
}
