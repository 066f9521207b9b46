package core

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	ex "ma/data/extensions"
)

type CorrelationMatrix struct {
	Symbols []string
	Values  *mat.SymDense // nil when there are no symbols
}

// At looks a pair up by symbol, false when either symbol is not in the matrix
func (c *CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := c.index(a), c.index(b)
	if i < 0 || j < 0 || c.Values == nil {
		return 0, false
	}
	return c.Values.At(i, j), true
}

func (c *CorrelationMatrix) index(symbol string) int {
	for i, s := range c.Symbols {
		if s == symbol {
			return i
		}
	}
	return -1
}

func (c *CorrelationMatrix) MarshalJSON() ([]byte, error) {
	n := len(c.Symbols)
	values := make([][]float64, n)
	for i := range n {
		values[i] = make([]float64, n)
		for j := range n {
			if c.Values != nil {
				values[i][j] = c.Values.At(i, j)
			}
		}
	}

	return json.Marshal(struct {
		Symbols []string    `json:"symbols"`
		Values  [][]float64 `json:"values"`
	}{
		Symbols: c.Symbols,
		Values:  values,
	})
}

// CalculateCorrelationMatrix is the pearson correlation of every pair of return series over
// the days both are defined. Each pair is computed once so the matrix is exactly symmetric.
// A pair with a constant side or fewer than two joint days is 0.
func CalculateCorrelationMatrix(series []*ReturnSeries) *CorrelationMatrix {
	n := len(series)
	res := &CorrelationMatrix{Symbols: make([]string, n)}
	for i, s := range series {
		res.Symbols[i] = s.Symbol
	}

	// mat panics on a zero sized matrix
	if n == 0 {
		return res
	}

	res.Values = mat.NewSymDense(n, nil)
	for i := range n {
		res.Values.SetSym(i, i, 1)
		for j := range i {
			res.Values.SetSym(i, j, pairCorrelation(series[i], series[j]))
		}
	}

	return res
}

func pairCorrelation(a, b *ReturnSeries) float64 {
	xs, ys := definedPairs(a, b)
	if len(xs) < 2 || ex.AreAllEqual(xs) || ex.AreAllEqual(ys) {
		return 0
	}
	return ex.Clamp(ex.FiniteOr(stat.Correlation(xs, ys, nil), 0), -1, 1)
}
