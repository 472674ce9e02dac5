package paper

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

// Kbars synthesizes one-minute bars for every weekday session in [start, end].
// Bars for a given code and day are always the same, whatever the window.
func (e *Exchange) Kbars(ctx context.Context, contract eventmodels.Contract, start, end time.Time) ([]eventmodels.Kbar, error) {
	e.mu.Lock()
	l, err := e.lookup(contract.Code)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("paper.Kbars: %w", err)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("paper.Kbars: end %s before start %s: %w", end.Format("2006-01-02"), start.Format("2006-01-02"), eventmodels.ErrValidation)
	}

	reference, _ := l.contract.Reference.Float64()
	seed := codeSeed(contract.Code) ^ e.cfg.Seed

	var bars []eventmodels.Kbar
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, taipei)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, taipei)
	for ; !day.After(last); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		bars = append(bars, sessionBars(seed, reference, day)...)
	}

	return bars, nil
}

func sessionBars(seed int64, reference float64, day time.Time) []eventmodels.Kbar {
	dayNumber := day.Unix() / 86400
	rnd := rand.New(rand.NewSource(seed ^ dayNumber))

	// slow drift around the reference so multi-week windows trend
	anchor := reference * (1 + 0.08*math.Sin(float64(dayNumber)/9.0+float64(seed%17)))
	price := anchor

	const minutes = sessionCloseMinute - sessionOpenMinute
	bars := make([]eventmodels.Kbar, 0, minutes)
	for m := 1; m <= minutes; m++ {
		open := price
		price = math.Max(0.01, price*(1+(rnd.Float64()-0.5)*0.002))
		high := math.Max(open, price) * (1 + rnd.Float64()*0.0005)
		low := math.Min(open, price) * (1 - rnd.Float64()*0.0005)
		volume := int64(rnd.Intn(200) + 1)

		bars = append(bars, eventmodels.Kbar{
			Ts:     day.Add(time.Duration(sessionOpenMinute+m) * time.Minute),
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(price),
			Volume: volume,
			Amount: round2(price * float64(volume) * 1000),
		})
	}

	return bars
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (e *Exchange) Snapshots(ctx context.Context, contracts []eventmodels.Contract) ([]eventmodels.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().In(taipei)
	snapshots := make([]eventmodels.Snapshot, 0, len(contracts))
	for _, c := range contracts {
		l, err := e.lookup(c.Code)
		if err != nil {
			return nil, fmt.Errorf("paper.Snapshots: %w", err)
		}

		last, _ := l.last.Float64()
		open, _ := l.open.Float64()
		high, _ := l.high.Float64()
		low, _ := l.low.Float64()
		reference, _ := l.contract.Reference.Float64()
		amount, _ := l.totalAmount.Float64()
		tick, _ := tickSize(l.last).Float64()

		changeRate := 0.0
		if reference != 0 {
			changeRate = round2((last - reference) / reference * 100)
		}

		snapshots = append(snapshots, eventmodels.Snapshot{
			Ts:          now,
			Code:        c.Code,
			Exchange:    l.contract.Exchange,
			Open:        open,
			High:        high,
			Low:         low,
			Close:       last,
			ChangePrice: round2(last - reference),
			ChangeRate:  changeRate,
			TotalVolume: l.totalVolume,
			TotalAmount: amount,
			BuyPrice:    last,
			SellPrice:   round2(last + tick),
		})
	}

	return snapshots, nil
}
