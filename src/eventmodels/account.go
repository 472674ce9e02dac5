package eventmodels

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeStock  AccountType = "S"
	AccountTypeFuture AccountType = "F"
)

type Account struct {
	AccountType AccountType `json:"account_type" csv:"account_type"`
	PersonID    string      `json:"person_id" csv:"person_id"`
	BrokerID    string      `json:"broker_id" csv:"broker_id"`
	AccountID   string      `json:"account_id" csv:"account_id"`
	Signed      bool        `json:"signed" csv:"signed"`
	Username    string      `json:"username" csv:"username"`
}

type AccountBalance struct {
	AccountID   string          `json:"account_id" csv:"account_id"`
	Balance     decimal.Decimal `json:"acc_balance" csv:"acc_balance"`
	Date        time.Time       `json:"date" csv:"date"`
	ErrorMsg    string          `json:"errmsg" csv:"errmsg"`
	Simulation  bool            `json:"simulation" csv:"simulation"`
	Settlements decimal.Decimal `json:"settlements" csv:"settlements"`
}

type Unit string

const (
	UnitCommon Unit = "Common"
	UnitShare  Unit = "Share"
)

func (u Unit) Validate() error {
	switch u {
	case UnitCommon, UnitShare:
		return nil
	default:
		return fmt.Errorf("invalid unit: %s: %w", u, ErrValidation)
	}
}

type Position struct {
	ID        int64           `json:"id" csv:"id"`
	Code      StockCode       `json:"code" csv:"code"`
	Direction Action          `json:"direction" csv:"direction"`
	Quantity  int64           `json:"quantity" csv:"quantity"`
	Price     decimal.Decimal `json:"price" csv:"price"`
	LastPrice decimal.Decimal `json:"last_price" csv:"last_price"`
	PNL       decimal.Decimal `json:"pnl" csv:"pnl"`
	Yd        int64           `json:"yd_quantity" csv:"yd_quantity"`
	Cond      StockOrderCond  `json:"cond" csv:"cond"`
}

type ProfitLoss struct {
	ID         int64           `json:"id" csv:"id"`
	Code       StockCode       `json:"code" csv:"code"`
	Quantity   int64           `json:"quantity" csv:"quantity"`
	PNL        decimal.Decimal `json:"pnl" csv:"pnl"`
	Date       string          `json:"date" csv:"date"`
	EntryPrice decimal.Decimal `json:"entry_price" csv:"entry_price"`
	CoverPrice decimal.Decimal `json:"cover_price" csv:"cover_price"`
	Pr         decimal.Decimal `json:"pr_ratio" csv:"pr_ratio"`
	Cond       StockOrderCond  `json:"cond" csv:"cond"`
}
