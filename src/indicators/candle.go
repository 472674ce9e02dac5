package indicators

import (
	"sort"
	"time"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

type Candle struct {
	Date   string    `json:"date" csv:"date"`
	Ts     time.Time `json:"-" csv:"-"`
	Open   float64   `json:"open" csv:"open"`
	High   float64   `json:"high" csv:"high"`
	Low    float64   `json:"low" csv:"low"`
	Close  float64   `json:"close" csv:"close"`
	Volume int64     `json:"volume" csv:"volume"`
}

// DailyCandles folds intraday bars into one candle per trading day in loc,
// sorted by date.
func DailyCandles(bars []eventmodels.Kbar, loc *time.Location) []Candle {
	if loc == nil {
		loc = time.UTC
	}

	sorted := make([]eventmodels.Kbar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ts.Before(sorted[j].Ts) })

	var candles []Candle
	for _, bar := range sorted {
		ts := bar.Ts.In(loc)
		date := ts.Format("2006-01-02")

		if n := len(candles); n > 0 && candles[n-1].Date == date {
			c := &candles[n-1]
			if bar.High > c.High {
				c.High = bar.High
			}
			if bar.Low < c.Low {
				c.Low = bar.Low
			}
			c.Close = bar.Close
			c.Volume += bar.Volume
			continue
		}

		candles = append(candles, Candle{
			Date:   date,
			Ts:     time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	return candles
}
