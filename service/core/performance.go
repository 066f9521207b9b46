package core

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"

	ex "ma/data/extensions"
	sm "ma/service/models"
)

// BenchmarkReference is what an instrument needs from the benchmark to get a beta and alpha
type BenchmarkReference struct {
	Symbol           string
	Returns          *ReturnSeries
	AnnualizedReturn float64
}

func NewBenchmarkReference(returns *ReturnSeries, closes []float64, settings sm.AnalysisSettings) *BenchmarkReference {
	total, _ := totalReturn(returns.Symbol, closes)
	return &BenchmarkReference{
		Symbol:           returns.Symbol,
		Returns:          returns,
		AnnualizedReturn: annualizeReturn(total, returns.Len(), settings.TradingDaysPerYear),
	}
}

// CalculatePerformanceStats builds the risk and performance record of one symbol.
// T is the number of return observations. Degenerate denominators give 0, never NaN.
// Beta and alpha are only set when a benchmark is passed.
func CalculatePerformanceStats(returns *ReturnSeries, closes []float64, drawdowns *DrawdownSeries, benchmark *BenchmarkReference, settings sm.AnalysisSettings) (StatsRecord, []string) {
	var warnings []string
	t := returns.Len()
	periods := float64(settings.TradingDaysPerYear)
	defined := returns.Defined()

	total, warning := totalReturn(returns.Symbol, closes)
	if warning != "" {
		warnings = append(warnings, warning)
	}

	annualizedReturn := annualizeReturn(total, t, settings.TradingDaysPerYear)
	annualizedVolatility := sampleStdDev(defined) * math.Sqrt(periods)
	downside := downsideDeviation(defined) * math.Sqrt(periods)

	record := StatsRecord{
		TotalReturn:          total,
		AnnualizedReturn:     annualizedReturn,
		AnnualizedVolatility: annualizedVolatility,
		Sharpe:               safeDivide(annualizedReturn, annualizedVolatility),
		Sortino:              safeDivide(annualizedReturn, downside),
		Calmar:               safeDivide(annualizedReturn, math.Abs(drawdowns.MaxDrawdown)),
		MaxDrawdown:          drawdowns.MaxDrawdown,
		MaxDrawdownDate:      drawdowns.MaxDrawdownDate,
		Observations:         t,
	}

	record.VaR, record.CVaR = valueAtRisk(defined, settings.VaRConfidence)

	if benchmark != nil && benchmark.Returns != nil {
		beta := calculateBeta(returns, benchmark.Returns)
		record.Beta = null.FloatFrom(beta)
		record.Alpha = null.FloatFrom(ex.FiniteOr(annualizedReturn-beta*benchmark.AnnualizedReturn, 0))
	}

	return record, warnings
}

func totalReturn(symbol string, closes []float64) (float64, string) {
	if len(closes) < 2 {
		return 0, ""
	}
	first := closes[0]
	if first <= 0 {
		return 0, fmt.Sprintf("%s: first close is %v, total return set to 0", symbol, first)
	}
	return ex.FiniteOr(closes[len(closes)-1]/first-1, 0), ""
}

// downsideDeviation is the sample standard deviation of the strictly negative returns
func downsideDeviation(returns []float64) float64 {
	return sampleStdDev(ex.FilterMultiple(returns, func(r float64) bool { return r < 0 }))
}

// valueAtRisk returns the (1-confidence) percentile of returns and the mean of the returns at or below it
func valueAtRisk(returns []float64, confidence float64) (float64, float64) {
	if len(returns) == 0 {
		return 0, 0
	}

	sorted := sortedCopy(returns)
	v := percentile(sorted, 1-confidence)

	tail := ex.FilterMultiple(sorted, func(r float64) bool { return r <= v })
	if len(tail) == 0 {
		return v, v
	}
	// sum/n over a tied tail can round one ulp above v
	return v, min(mean(tail), v)
}

// calculateBeta is Cov(a, b)/Var(b) over the days both returns are defined
func calculateBeta(a, b *ReturnSeries) float64 {
	xs, ys := definedPairs(a, b)
	if len(xs) < 2 || ex.AreAllEqual(ys) {
		return 0
	}

	variance := stat.Variance(ys, nil)
	return safeDivide(stat.Covariance(xs, ys, nil), variance)
}
