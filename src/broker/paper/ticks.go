package paper

import "github.com/shopspring/decimal"

var (
	tick001 = decimal.RequireFromString("0.01")
	tick005 = decimal.RequireFromString("0.05")
	tick01  = decimal.RequireFromString("0.1")
	tick05  = decimal.RequireFromString("0.5")
	tick1   = decimal.NewFromInt(1)
	tick5   = decimal.NewFromInt(5)
)

// tickSize follows the TWSE equity price ladder.
func tickSize(price decimal.Decimal) decimal.Decimal {
	switch {
	case price.LessThan(decimal.NewFromInt(10)):
		return tick001
	case price.LessThan(decimal.NewFromInt(50)):
		return tick005
	case price.LessThan(decimal.NewFromInt(100)):
		return tick01
	case price.LessThan(decimal.NewFromInt(500)):
		return tick05
	case price.LessThan(decimal.NewFromInt(1000)):
		return tick1
	default:
		return tick5
	}
}

func floorToTick(price decimal.Decimal) decimal.Decimal {
	size := tickSize(price)
	return price.Div(size).Floor().Mul(size)
}

func ceilToTick(price decimal.Decimal) decimal.Decimal {
	size := tickSize(price)
	return price.Div(size).Ceil().Mul(size)
}

func clamp(price, lo, hi decimal.Decimal) decimal.Decimal {
	if price.LessThan(lo) {
		return lo
	}

	if price.GreaterThan(hi) {
		return hi
	}

	return price
}
