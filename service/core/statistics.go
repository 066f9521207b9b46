package core

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	ex "ma/data/extensions"
)

// sampleStdDev is the n-1 standard deviation, 0 for fewer than two values or a constant series.
// The constant check keeps rounding in the mean from producing a tiny nonzero deviation.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 || ex.AreAllEqual(values) {
		return 0
	}
	return ex.FiniteOr(stat.StdDev(values, nil), 0)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return ex.FiniteOr(stat.Mean(values, nil), 0)
}

// percentile interpolates linearly between the order statistics around p*(n-1).
// stat.Quantile only offers the empirical and LinInterp definitions, neither of which
// places the quantile at p*(n-1), so the lookup is done here.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	pos := ex.Clamp(p, 0, 1) * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func sortedCopy(values []float64) []float64 {
	res := slices.Clone(values)
	slices.Sort(res)
	return res
}

// annualizeReturn compounds a total return over t periods up to a year of periodsPerYear
func annualizeReturn(totalReturn float64, t int, periodsPerYear int) float64 {
	base := 1 + totalReturn
	if t < 1 || base <= 0 {
		return 0
	}
	return ex.FiniteOr(math.Pow(base, float64(periodsPerYear)/float64(t))-1, 0)
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return ex.FiniteOr(numerator/denominator, 0)
}
