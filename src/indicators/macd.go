package indicators

type MacdStats struct {
	Macd      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Macd tracks the fast/slow EMA spread and its signal line.
type Macd struct {
	fast   *Ema
	slow   *Ema
	signal *Ema
}

func NewMacd(fastPeriod, slowPeriod, signalPeriod int) *Macd {
	return &Macd{
		fast:   NewEma(fastPeriod),
		slow:   NewEma(slowPeriod),
		signal: NewEma(signalPeriod),
	}
}

// Update reports ready once the signal line has a value, which takes
// slowPeriod + signalPeriod - 1 candles.
func (m *Macd) Update(c Candle) (bool, MacdStats) {
	_, fast := m.fast.Update(c)
	slowReady, slow := m.slow.Update(c)
	if !slowReady {
		return false, MacdStats{}
	}

	macd := fast - slow
	signalReady, signal := m.signal.UpdateValue(macd)
	if !signalReady {
		return false, MacdStats{Macd: macd}
	}

	return true, MacdStats{
		Macd:      macd,
		Signal:    signal,
		Histogram: macd - signal,
	}
}
