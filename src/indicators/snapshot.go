package indicators

import (
	"fmt"
	"math"
)

const klineTail = 10

// Snapshot is the latest value of each indicator over a daily candle series.
// Indicators without enough history are left nil.
type Snapshot struct {
	Candles   int                  `json:"candles"`
	Last      *Candle              `json:"last,omitempty"`
	Kline     []Candle             `json:"kline"`
	Sma5      *float64             `json:"sma5,omitempty"`
	Sma10     *float64             `json:"sma10,omitempty"`
	Sma20     *float64             `json:"sma20,omitempty"`
	Ema12     *float64             `json:"ema12,omitempty"`
	Ema26     *float64             `json:"ema26,omitempty"`
	Rsi14     *float64             `json:"rsi14,omitempty"`
	Macd      *MacdStats           `json:"macd,omitempty"`
	Bollinger *BollingerBandsStats `json:"bollinger,omitempty"`
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	r := round(v)
	return &r
}

func Compute(candles []Candle) (Snapshot, error) {
	sma5, sma10, sma20 := NewSma(5), NewSma(10), NewSma(20)
	ema12, ema26 := NewEma(12), NewEma(26)
	rsi := NewRsi(14)
	macd := NewMacd(12, 26, 9)
	bollinger := NewBollingerBands(20, 2.0)

	snapshot := Snapshot{Candles: len(candles)}

	for _, c := range candles {
		for _, sma := range []struct {
			ind *Sma
			out **float64
		}{{sma5, &snapshot.Sma5}, {sma10, &snapshot.Sma10}, {sma20, &snapshot.Sma20}} {
			ok, v, err := sma.ind.Update(c)
			if err != nil {
				return Snapshot{}, fmt.Errorf("Compute: sma%d: %w", sma.ind.Period, err)
			}
			if ok {
				*sma.out = ptr(v)
			}
		}

		if ok, v := ema12.Update(c); ok {
			snapshot.Ema12 = ptr(v)
		}

		if ok, v := ema26.Update(c); ok {
			snapshot.Ema26 = ptr(v)
		}

		if v := rsi.Update(c); rsi.Ready() {
			snapshot.Rsi14 = ptr(v)
		}

		if ok, v := macd.Update(c); ok {
			snapshot.Macd = &MacdStats{Macd: round(v.Macd), Signal: round(v.Signal), Histogram: round(v.Histogram)}
		}

		ok, bands, err := bollinger.Update(c)
		if err != nil {
			return Snapshot{}, fmt.Errorf("Compute: bollinger: %w", err)
		}
		if ok {
			snapshot.Bollinger = &BollingerBandsStats{Upper: round(bands.Upper), Lower: round(bands.Lower), MovingAverage: round(bands.MovingAverage)}
		}
	}

	if n := len(candles); n > 0 {
		last := candles[n-1]
		snapshot.Last = &last

		from := n - klineTail
		if from < 0 {
			from = 0
		}
		snapshot.Kline = append([]Candle(nil), candles[from:]...)
	}

	return snapshot, nil
}
