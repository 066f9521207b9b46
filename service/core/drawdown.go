package core

import (
	"time"
)

// CalculateDrawdowns tracks the running peak of closes and the decline from it.
// Every value is <= 0, and the maximum drawdown keeps the first date it was reached.
func CalculateDrawdowns(symbol string, dates []time.Time, closes []float64) *DrawdownSeries {
	n := len(closes)
	res := &DrawdownSeries{
		Symbol:     symbol,
		Dates:      dates,
		Values:     make([]float64, n),
		RunningMax: make([]float64, n),
	}
	if n == 0 {
		return res
	}

	peak := closes[0]
	res.MaxDrawdownDate = dates[0]
	for i, p := range closes {
		if p > peak {
			peak = p
		}
		res.RunningMax[i] = peak

		// a non positive peak has no meaningful decline
		dd := 0.0
		if peak > 0 {
			dd = min((p-peak)/peak, 0)
		}
		res.Values[i] = dd

		if dd < res.MaxDrawdown {
			res.MaxDrawdown = dd
			res.MaxDrawdownDate = dates[i]
		}
	}

	return res
}
