package core

import (
	"encoding/json"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "ma/data/extensions"
)

func TestCorrelationCoMovingSeries(t *testing.T) {
	closes := generateMockCloses(t, 120, 5, 0.06, 0.2)
	a, _ := CalculateReturns("A", tradingDays(len(closes)), closes)

	b := &ReturnSeries{Symbol: "B", Dates: a.Dates, Values: a.Values}
	inverse := &ReturnSeries{Symbol: "INV", Dates: a.Dates, Values: make([]null.Float, a.Len())}
	for i, v := range a.Values {
		inverse.Values[i] = null.FloatFrom(-3 * v.Float64)
	}

	cm := CalculateCorrelationMatrix([]*ReturnSeries{a, b, inverse})

	ab, ok := cm.At("A", "B")
	require.True(t, ok)
	ex.AssertAlmostEqual(t, "identical", 1, ab, 1e-9)

	ai, _ := cm.At("A", "INV")
	ex.AssertAlmostEqual(t, "inverse", -1, ai, 1e-9)
}

func TestCorrelationMatrixProperties(t *testing.T) {
	series := make([]*ReturnSeries, 4)
	for i, symbol := range []string{"A", "B", "C", "D"} {
		closes := generateMockCloses(t, 150, uint64(20+i), 0.05, 0.2+0.05*float64(i))
		series[i], _ = CalculateReturns(symbol, tradingDays(len(closes)), closes)
	}
	// give one series a gap
	series[2].Values[10].Valid = false

	cm := CalculateCorrelationMatrix(series)
	require.Equal(t, []string{"A", "B", "C", "D"}, cm.Symbols)

	n := len(series)
	for i := range n {
		ex.AssertAreEqual(t, "diagonal", 1.0, cm.Values.At(i, i))
		for j := range n {
			v := cm.Values.At(i, j)
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
			ex.AssertAreEqual(t, "symmetric", v, cm.Values.At(j, i))
		}
	}
}

func TestCorrelationDegenerateSeries(t *testing.T) {
	flat := returnSeriesFrom("FLAT", 0, 0, 0, 0)
	asset := returnSeriesFrom("A", 0.01, -0.02, 0.03, 0.01)
	single := returnSeriesFrom("ONE", 0.01)

	cm := CalculateCorrelationMatrix([]*ReturnSeries{flat, asset, single})

	v, _ := cm.At("FLAT", "A")
	ex.AssertAreEqual(t, "zero variance", 0.0, v)
	v, _ = cm.At("A", "ONE")
	ex.AssertAreEqual(t, "one joint observation", 0.0, v)
	v, _ = cm.At("FLAT", "FLAT")
	ex.AssertAreEqual(t, "diagonal", 1.0, v)

	_, ok := cm.At("A", "MISSING")
	assert.False(t, ok)
}

func TestCorrelationMatrixJSON(t *testing.T) {
	cm := CalculateCorrelationMatrix([]*ReturnSeries{
		returnSeriesFrom("A", 0.01, 0.02, 0.03),
		returnSeriesFrom("B", 0.02, 0.04, 0.06),
	})

	body, err := json.Marshal(cm)
	require.NoError(t, err)

	var decoded struct {
		Symbols []string    `json:"symbols"`
		Values  [][]float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, []string{"A", "B"}, decoded.Symbols)
	require.Len(t, decoded.Values, 2)
	ex.AssertAlmostEqual(t, "off diagonal", 1, decoded.Values[0][1], 1e-9)

	empty, err := json.Marshal(CalculateCorrelationMatrix(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbols":[],"values":[]}`, string(empty))
}
