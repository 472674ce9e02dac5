package indicators

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Sma is a simple moving average over the last Period closes.
type Sma struct {
	Period int
	closes []float64
}

func NewSma(period int) *Sma {
	return &Sma{Period: period}
}

func (s *Sma) Update(c Candle) (bool, float64, error) {
	s.closes = append(s.closes, c.Close)
	if len(s.closes) > s.Period {
		s.closes = s.closes[1:]
	}

	if len(s.closes) < s.Period {
		return false, 0, nil
	}

	mean, err := stats.Mean(s.closes)
	if err != nil {
		return false, 0, fmt.Errorf("failed to caculate mean: %v", err)
	}

	return true, mean, nil
}

// Ema is an exponential moving average seeded with the SMA of the first
// Period closes.
type Ema struct {
	Period int
	value  *float64
	seed   []float64
}

func NewEma(period int) *Ema {
	return &Ema{Period: period}
}

func (e *Ema) multiplier() float64 {
	return 2.0 / (float64(e.Period) + 1.0)
}

func (e *Ema) Update(c Candle) (bool, float64) {
	return e.UpdateValue(c.Close)
}

// UpdateValue feeds a raw value, for EMAs of derived series such as MACD.
func (e *Ema) UpdateValue(v float64) (bool, float64) {
	if e.value != nil {
		next := (v-*e.value)*e.multiplier() + *e.value
		e.value = &next
		return true, next
	}

	e.seed = append(e.seed, v)
	if len(e.seed) < e.Period {
		return false, 0
	}

	first := average(e.seed)
	e.value = &first
	e.seed = nil
	return true, first
}
