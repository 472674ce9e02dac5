package indicators

import (
	"math"
)

// Rsi is Wilder's relative strength index. The first value is seeded with a
// simple average over Period changes; later values are smoothed.
type Rsi struct {
	prevAvgGain *float64
	prevAvgLoss *float64
	closes      []float64
	Period      int
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func split(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}

	return 0, math.Abs(delta)
}

// relativeStrength is avgGain / avgLoss. A series with no movement at all has
// RS 1, which puts the RSI at 50.
func relativeStrength(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 1
		}
		return math.Inf(1)
	}

	return avgGain / avgLoss
}

func (r *Rsi) deriveRS() float64 {
	if r.prevAvgGain != nil {
		delta := r.closes[len(r.closes)-1] - r.closes[len(r.closes)-2]
		deltaGain, deltaLoss := split(delta)

		avgGain := ((*r.prevAvgGain)*(float64(r.Period)-1.0) + deltaGain) / float64(r.Period)
		avgLoss := ((*r.prevAvgLoss)*(float64(r.Period)-1.0) + deltaLoss) / float64(r.Period)

		r.prevAvgGain = &avgGain
		r.prevAvgLoss = &avgLoss

		return relativeStrength(avgGain, avgLoss)
	}

	gains := make([]float64, 0, r.Period)
	losses := make([]float64, 0, r.Period)
	for i := 1; i < len(r.closes); i++ {
		gain, loss := split(r.closes[i] - r.closes[i-1])
		gains = append(gains, gain)
		losses = append(losses, loss)
	}

	avgGain := average(gains)
	avgLoss := average(losses)
	r.prevAvgGain = &avgGain
	r.prevAvgLoss = &avgLoss

	return relativeStrength(avgGain, avgLoss)
}

// Update returns the RSI after c, or 0 until Period changes have been seen.
func (r *Rsi) Update(c Candle) float64 {
	r.closes = append(r.closes, c.Close)
	if len(r.closes) <= r.Period {
		return 0
	}

	rs := r.deriveRS()

	r.closes = r.closes[1:]

	if math.IsInf(rs, 1) {
		return 100
	}

	return 100 - (100 / (1 + rs))
}

func (r *Rsi) Ready() bool {
	return r.prevAvgGain != nil
}

func NewRsi(period int) *Rsi {
	return &Rsi{
		Period: period,
	}
}
