package indicators

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

type BollingerBands struct {
	SmaPeriod         int
	StandardDeviation float64
	typicalPrice      []float64
}

type BollingerBandsStats struct {
	Upper         float64 `json:"upper"`
	Lower         float64 `json:"lower"`
	MovingAverage float64 `json:"middle"`
}

// Update adds c and reports whether a full window is available.
func (b *BollingerBands) Update(c Candle) (bool, BollingerBandsStats, error) {
	typicalPrice := (c.High + c.Low + c.Close) / 3.0

	b.typicalPrice = append(b.typicalPrice, typicalPrice)
	if len(b.typicalPrice) > b.SmaPeriod {
		b.typicalPrice = b.typicalPrice[1:]
	}

	if len(b.typicalPrice) < b.SmaPeriod {
		return false, BollingerBandsStats{}, nil
	}

	movingAverage, err := stats.Mean(b.typicalPrice)
	if err != nil {
		return false, BollingerBandsStats{}, fmt.Errorf("failed to caculate mean: %v", err)
	}

	sd, err := stats.StandardDeviation(b.typicalPrice)
	if err != nil {
		return false, BollingerBandsStats{}, fmt.Errorf("failed to caculate the standard deviation: %v", err)
	}

	return true, BollingerBandsStats{
		Upper:         movingAverage + (b.StandardDeviation * sd),
		Lower:         movingAverage - (b.StandardDeviation * sd),
		MovingAverage: movingAverage,
	}, nil
}

func NewBollingerBands(smaPeriod int, standardDeviation float64) *BollingerBands {
	return &BollingerBands{
		SmaPeriod:         smaPeriod,
		StandardDeviation: standardDeviation,
	}
}
