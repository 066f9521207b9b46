package core

import (
	"math"

	"github.com/guregu/null/v6"

	sm "ma/service/models"
)

// CalculateRollingStats builds the rolling volatility on the return index and the
// moving averages with bands on the price index
func CalculateRollingStats(returns *ReturnSeries, prices *PriceSeries, settings sm.AnalysisSettings) *RollingStats {
	short, long, upper, lower := CalculateMovingAverageBands(prices.Close, settings.ShortMovingAverageWindow, settings.LongMovingAverageWindow, settings.BandWidth)

	return &RollingStats{
		ReturnDates: returns.Dates,
		Volatility:  CalculateRollingVolatility(returns, settings.RollingVolatilityWindow, settings.TradingDaysPerYear),
		PriceDates:  prices.Dates,
		ShortMA:     short,
		LongMA:      long,
		UpperBand:   upper,
		LowerBand:   lower,
	}
}

// CalculateRollingVolatility is the trailing sample standard deviation of returns, annualized.
// The first window-1 entries, and any window holding an undefined return, are unset.
func CalculateRollingVolatility(returns *ReturnSeries, window int, periodsPerYear int) []null.Float {
	scale := math.Sqrt(float64(periodsPerYear))
	return rollingWindow(returns.Values, window, func(w []float64) float64 {
		return sampleStdDev(w) * scale
	})
}

// CalculateMovingAverageBands returns the short and long simple moving averages of closes and
// the bands width sample standard deviations around the short average
func CalculateMovingAverageBands(closes []float64, shortWindow, longWindow int, width float64) (short, long, upper, lower []null.Float) {
	values := make([]null.Float, len(closes))
	for i, c := range closes {
		values[i] = null.FloatFrom(c)
	}

	short = rollingWindow(values, shortWindow, mean)
	long = rollingWindow(values, longWindow, mean)
	deviation := rollingWindow(values, shortWindow, sampleStdDev)

	upper = make([]null.Float, len(closes))
	lower = make([]null.Float, len(closes))
	for i := range closes {
		if !short[i].Valid || !deviation[i].Valid {
			continue
		}
		upper[i] = null.FloatFrom(short[i].Float64 + width*deviation[i].Float64)
		lower[i] = null.FloatFrom(short[i].Float64 - width*deviation[i].Float64)
	}

	return
}

// rollingWindow applies f to every full trailing window of values
func rollingWindow(values []null.Float, window int, f func([]float64) float64) []null.Float {
	res := make([]null.Float, len(values))
	if window < 1 || len(values) < window {
		return res
	}

	buf := make([]float64, window)
	for end := window - 1; end < len(values); end++ {
		complete := true
		for j := range window {
			v := values[end-window+1+j]
			if !v.Valid {
				complete = false
				break
			}
			buf[j] = v.Float64
		}
		if complete {
			res[end] = null.FloatFrom(f(buf))
		}
	}

	return res
}
