package eventmodels

import "github.com/shopspring/decimal"

type Contract struct {
	Code          StockCode       `json:"code" csv:"code" yaml:"code"`
	Symbol        string          `json:"symbol" csv:"symbol" yaml:"symbol"`
	Name          string          `json:"name" csv:"name" yaml:"name"`
	Exchange      Exchange        `json:"exchange" csv:"exchange" yaml:"exchange"`
	Category      string          `json:"category" csv:"category" yaml:"category"`
	Unit          int64           `json:"unit" csv:"unit" yaml:"unit"`
	LimitUp       decimal.Decimal `json:"limit_up" csv:"limit_up" yaml:"-"`
	LimitDown     decimal.Decimal `json:"limit_down" csv:"limit_down" yaml:"-"`
	Reference     decimal.Decimal `json:"reference" csv:"reference" yaml:"-"`
	DayTrade      string          `json:"day_trade" csv:"day_trade" yaml:"day_trade"`
	UpdateDate    string          `json:"update_date" csv:"update_date" yaml:"-"`
	MarginBalance int64           `json:"margin_trading_balance" csv:"margin_trading_balance" yaml:"-"`
	ShortBalance  int64           `json:"short_selling_balance" csv:"short_selling_balance" yaml:"-"`
}

// ContractFilter narrows a product listing. Zero values match everything.
type ContractFilter struct {
	Exchange Exchange
	Category string
	Keyword  string
	Limit    int
}
