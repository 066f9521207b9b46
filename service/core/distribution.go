package core

import (
	"slices"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"

	ex "ma/data/extensions"
)

// CalculateDistributionSummary describes the daily return distribution, the close and
// cumulative return ranges and the spread of the rolling volatility
func CalculateDistributionSummary(returns *ReturnSeries, cumulative *CumulativeReturnSeries, closes []float64, rollingVolatility []null.Float) DistributionSummary {
	var res DistributionSummary
	defined := returns.Defined()

	res.MeanReturn = mean(defined)
	res.StdDevReturn = sampleStdDev(defined)

	// skew and kurtosis are undefined for a constant series
	if len(defined) > 3 && !ex.AreAllEqual(defined) {
		res.Skewness = ex.FiniteOr(stat.Skew(defined, nil), 0)
		res.ExcessKurtosis = ex.FiniteOr(stat.ExKurtosis(defined, nil), 0)
	}

	if len(closes) > 0 {
		res.FirstClose = closes[0]
		res.LastClose = closes[len(closes)-1]
		res.MaxClose = slices.Max(closes)
		res.MinClose = slices.Min(closes)
	}

	if cumulative != nil {
		if cum := validValues(cumulative.Values); len(cum) > 0 {
			res.CumulativeReturnMax = null.FloatFrom(slices.Max(cum))
			res.CumulativeReturnMin = null.FloatFrom(slices.Min(cum))
		}
	}

	vols := validValues(rollingVolatility)
	if len(vols) > 0 {
		res.RollingVolatilityMean = null.FloatFrom(mean(vols))
		res.RollingVolatilityMax = null.FloatFrom(slices.Max(vols))
		res.RollingVolatilityMin = null.FloatFrom(slices.Min(vols))
	}

	return res
}

func validValues(values []null.Float) []float64 {
	res := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			res = append(res, v.Float64)
		}
	}
	return res
}
