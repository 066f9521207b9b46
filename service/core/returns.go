package core

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	ex "ma/data/extensions"
)

// CalculateReturns computes simple close to close returns. A step whose previous close
// is not positive has no return, it is left unset and reported in the warnings.
func CalculateReturns(symbol string, dates []time.Time, closes []float64) (*ReturnSeries, []string) {
	res := &ReturnSeries{Symbol: symbol}
	if len(closes) < 2 || len(dates) != len(closes) {
		return res, nil
	}

	var warnings []string
	n := len(closes) - 1
	res.Dates = dates[1:]
	res.Values = make([]null.Float, n)

	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s: close on %s is %v, return for %s is undefined", symbol, ex.FmtShort(dates[i-1]), prev, ex.FmtShort(dates[i])))
			continue
		}

		r := closes[i]/prev - 1
		if !ex.IsFinite(r) {
			warnings = append(warnings, fmt.Sprintf("%s: return for %s is not finite", symbol, ex.FmtShort(dates[i])))
			continue
		}
		res.Values[i-1] = null.FloatFrom(r)
	}

	return res, warnings
}

// CalculateCumulativeReturns compounds the defined returns. Undefined steps stay unset and
// do not contribute, so the last value matches last/first - 1 when every step is defined.
func CalculateCumulativeReturns(returns *ReturnSeries) *CumulativeReturnSeries {
	res := &CumulativeReturnSeries{
		Symbol: returns.Symbol,
		Dates:  returns.Dates,
		Values: make([]null.Float, len(returns.Values)),
	}

	growth := 1.0
	for i, r := range returns.Values {
		if !r.Valid {
			continue
		}
		growth *= 1 + r.Float64
		res.Values[i] = null.FloatFrom(growth - 1)
	}

	return res
}

// definedPairs returns the observations where both series have a return
func definedPairs(a, b *ReturnSeries) ([]float64, []float64) {
	n := ex.Min(len(a.Values), len(b.Values))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := range n {
		if a.Values[i].Valid && b.Values[i].Valid {
			xs = append(xs, a.Values[i].Float64)
			ys = append(ys, b.Values[i].Float64)
		}
	}
	return xs, ys
}
