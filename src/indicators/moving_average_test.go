package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSma(t *testing.T) {
	sma := NewSma(5)
	for i, c := range []float64{1, 2, 3, 4} {
		ok, _, err := sma.Update(Candle{Close: c})
		require.NoError(t, err)
		assert.False(t, ok, "candle %d", i)
	}

	ok, v, err := sma.Update(Candle{Close: 5})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, v, err = sma.Update(Candle{Close: 11})
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
}

func TestEma(t *testing.T) {
	ema := NewEma(3)

	ok, _ := ema.Update(Candle{Close: 2})
	assert.False(t, ok)
	ok, _ = ema.Update(Candle{Close: 4})
	assert.False(t, ok)

	ok, v := ema.Update(Candle{Close: 6})
	assert.True(t, ok)
	assert.Equal(t, 4.0, v, "seeded with the simple average")

	_, v = ema.Update(Candle{Close: 8})
	assert.Equal(t, 6.0, v)
}

func TestMacd(t *testing.T) {
	macd := NewMacd(3, 5, 2)

	var ready []bool
	var last MacdStats
	for i := 1; i <= 8; i++ {
		ok, stats := macd.Update(Candle{Close: float64(i)})
		ready = append(ready, ok)
		last = stats
	}

	assert.Equal(t, []bool{false, false, false, false, false, true, true, true}, ready)
	assert.Greater(t, last.Macd, 0.0, "fast average leads in an uptrend")
	assert.InDelta(t, last.Macd-last.Signal, last.Histogram, 1e-9)
}
