package eventmodels

import (
	"fmt"
	"strings"
)

type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
)

func (a Action) Validate() error {
	switch a {
	case ActionBuy, ActionSell:
		return nil
	default:
		return fmt.Errorf("invalid action: %s: %w", a, ErrValidation)
	}
}

type StockPriceType string

const (
	StockPriceTypeLimit  StockPriceType = "LMT"
	StockPriceTypeMarket StockPriceType = "MKT"
)

func (t StockPriceType) Validate() error {
	switch t {
	case StockPriceTypeLimit, StockPriceTypeMarket:
		return nil
	default:
		return fmt.Errorf("invalid price type: %s: %w", t, ErrValidation)
	}
}

type OrderType string

const (
	// OrderTypeROD is rest-of-day, the regular during-day order.
	OrderTypeROD OrderType = "ROD"
	OrderTypeIOC OrderType = "IOC"
	OrderTypeFOK OrderType = "FOK"
)

func (t OrderType) Validate() error {
	switch t {
	case OrderTypeROD, OrderTypeIOC, OrderTypeFOK:
		return nil
	default:
		return fmt.Errorf("invalid order type: %s: %w", t, ErrValidation)
	}
}

type StockOrderLot string

const (
	StockOrderLotCommon      StockOrderLot = "Common"
	StockOrderLotIntradayOdd StockOrderLot = "IntradayOdd"
	StockOrderLotOdd         StockOrderLot = "Odd"
	StockOrderLotFixing      StockOrderLot = "Fixing"
)

func (l StockOrderLot) Validate() error {
	switch l {
	case StockOrderLotCommon, StockOrderLotIntradayOdd, StockOrderLotOdd, StockOrderLotFixing:
		return nil
	default:
		return fmt.Errorf("invalid order lot: %s: %w", l, ErrValidation)
	}
}

type StockOrderCond string

const (
	StockOrderCondCash          StockOrderCond = "Cash"
	StockOrderCondMarginTrading StockOrderCond = "MarginTrading"
	StockOrderCondShortSelling  StockOrderCond = "ShortSelling"
)

func (c StockOrderCond) Validate() error {
	switch c {
	case StockOrderCondCash, StockOrderCondMarginTrading, StockOrderCondShortSelling:
		return nil
	default:
		return fmt.Errorf("invalid order cond: %s: %w", c, ErrValidation)
	}
}

// ParseEnum matches s case-insensitively against the allowed values and
// returns the canonical spelling. Empty input yields def.
func ParseEnum[T ~string](s string, def T, allowed ...T) (T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}

	for _, v := range allowed {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}

	return "", fmt.Errorf("invalid value %q: %w", s, ErrValidation)
}
