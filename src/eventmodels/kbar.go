package eventmodels

import "time"

// Kbar is one OHLCV bucket as returned by the backend.
type Kbar struct {
	Ts     time.Time `json:"ts" csv:"ts"`
	Open   float64   `json:"open" csv:"open"`
	High   float64   `json:"high" csv:"high"`
	Low    float64   `json:"low" csv:"low"`
	Close  float64   `json:"close" csv:"close"`
	Volume int64     `json:"volume" csv:"volume"`
	Amount float64   `json:"amount" csv:"amount"`
}

type Snapshot struct {
	Ts          time.Time `json:"ts" csv:"ts"`
	Code        StockCode `json:"code" csv:"code"`
	Exchange    Exchange  `json:"exchange" csv:"exchange"`
	Open        float64   `json:"open" csv:"open"`
	High        float64   `json:"high" csv:"high"`
	Low         float64   `json:"low" csv:"low"`
	Close       float64   `json:"close" csv:"close"`
	ChangePrice float64   `json:"change_price" csv:"change_price"`
	ChangeRate  float64   `json:"change_rate" csv:"change_rate"`
	Volume      int64     `json:"volume" csv:"volume"`
	TotalVolume int64     `json:"total_volume" csv:"total_volume"`
	Amount      float64   `json:"amount" csv:"amount"`
	TotalAmount float64   `json:"total_amount" csv:"total_amount"`
	BuyPrice    float64   `json:"buy_price" csv:"buy_price"`
	SellPrice   float64   `json:"sell_price" csv:"sell_price"`
}
