package core

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat/distuv"

	sm "ma/service/models"
)

var firstTradingDay = time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

// tradingDays returns n weekdays starting at firstTradingDay
func tradingDays(n int) []time.Time {
	dates := make([]time.Time, 0, n)
	for d := firstTradingDay; len(dates) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

func barsFromCloses(dates []time.Time, closes []float64) []PriceBar {
	bars := make([]PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = PriceBar{
			Date:   dates[i],
			Open:   null.FloatFrom(c),
			High:   null.FloatFrom(c * 1.01),
			Low:    null.FloatFrom(c * 0.99),
			Close:  null.FloatFrom(c),
			Volume: null.FloatFrom(1_000_000),
		}
	}
	return bars
}

// generateMockCloses walks a log normal price path, the seed keeps it reproducible
func generateMockCloses(t *testing.T, n int, seed uint64, mu, sigma float64) []float64 {
	t.Helper()
	rng := rand.NewPCG(seed, seed+1)
	dist := distuv.Normal{
		Mu:    (mu - 0.5*sigma*sigma) / sm.Daily,
		Sigma: sigma / math.Sqrt(sm.Daily),
		Src:   rng,
	}

	closes := make([]float64, n)
	closes[0] = 100
	for i := 1; i < n; i++ {
		closes[i] = closes[i-1] * math.Exp(dist.Rand())
	}
	return closes
}

func returnSeriesFrom(symbol string, values ...float64) *ReturnSeries {
	dates := tradingDays(len(values) + 1)
	res := &ReturnSeries{Symbol: symbol, Dates: dates[1:], Values: make([]null.Float, len(values))}
	for i, v := range values {
		res.Values[i] = null.FloatFrom(v)
	}
	return res
}

// closesFromReturns rebuilds a price path starting at 100
func closesFromReturns(returns []float64) []float64 {
	closes := make([]float64, len(returns)+1)
	closes[0] = 100
	for i, r := range returns {
		closes[i+1] = closes[i] * (1 + r)
	}
	return closes
}

func assertFinite(t *testing.T, name string, v float64) {
	t.Helper()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		t.Fatalf("%s is not finite: %v", name, v)
	}
}

func assertStatsFinite(t *testing.T, symbol string, s StatsRecord) {
	t.Helper()
	for name, v := range map[string]float64{
		"total return":          s.TotalReturn,
		"annualized return":     s.AnnualizedReturn,
		"annualized volatility": s.AnnualizedVolatility,
		"sharpe":                s.Sharpe,
		"sortino":               s.Sortino,
		"calmar":                s.Calmar,
		"max drawdown":          s.MaxDrawdown,
		"var":                   s.VaR,
		"cvar":                  s.CVaR,
		"beta":                  s.Beta.Float64,
		"alpha":                 s.Alpha.Float64,
	} {
		assertFinite(t, symbol+" "+name, v)
	}
}
