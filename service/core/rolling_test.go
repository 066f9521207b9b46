package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "ma/data/extensions"
	sm "ma/service/models"
)

func TestRollingVolatilityLeadingUnset(t *testing.T) {
	settings := sm.DefaultAnalysisSettings()
	closes := generateMockCloses(t, 120, 7, 0.05, 0.25)
	returns, _ := CalculateReturns("MOCK", tradingDays(len(closes)), closes)

	vol := CalculateRollingVolatility(returns, settings.RollingVolatilityWindow, settings.TradingDaysPerYear)
	require.Len(t, vol, returns.Len())

	for i, v := range vol {
		if i < settings.RollingVolatilityWindow-1 {
			assert.False(t, v.Valid, "entry %d should be unset", i)
			continue
		}
		require.True(t, v.Valid, "entry %d should be set", i)
		assert.GreaterOrEqual(t, v.Float64, 0.0)
	}

	// last window by hand
	last := returns.Defined()[len(returns.Defined())-settings.RollingVolatilityWindow:]
	expected := sampleStdDev(last) * math.Sqrt(sm.Daily)
	ex.AssertAlmostEqual(t, "last window", expected, vol[len(vol)-1].Float64, 1e-12)
}

func TestRollingWindowWithUndefinedReturn(t *testing.T) {
	returns := returnSeriesFrom("GAP", 0.1, 0.2, 0.3, 0.4, 0.1)
	returns.Values[1].Valid = false

	vol := CalculateRollingVolatility(returns, 2, 1)
	valid := make([]bool, len(vol))
	for i, v := range vol {
		valid[i] = v.Valid
	}
	assert.Equal(t, []bool{false, false, false, true, true}, valid)
}

func TestMovingAverageBandsKnownData(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	short, long, upper, lower := CalculateMovingAverageBands(closes, 2, 5, 2)

	assert.False(t, short[0].Valid)
	ex.AssertAlmostEqual(t, "short ma 1", 1.5, short[1].Float64, 1e-12)
	ex.AssertAlmostEqual(t, "short ma 4", 4.5, short[4].Float64, 1e-12)

	for i := range 4 {
		assert.False(t, long[i].Valid, "long ma %d should be unset", i)
	}
	ex.AssertAlmostEqual(t, "long ma", 3, long[4].Float64, 1e-12)

	deviation := math.Sqrt(0.5)
	ex.AssertAlmostEqual(t, "upper band", 1.5+2*deviation, upper[1].Float64, 1e-12)
	ex.AssertAlmostEqual(t, "lower band", 1.5-2*deviation, lower[1].Float64, 1e-12)
	assert.False(t, upper[0].Valid)
	assert.False(t, lower[0].Valid)
}

func TestMovingAverageBandsFlatPrices(t *testing.T) {
	closes := []float64{50, 50, 50, 50}
	short, _, upper, lower := CalculateMovingAverageBands(closes, 2, 3, 2)

	for i := 1; i < len(closes); i++ {
		ex.AssertAreEqual(t, "short", 50.0, short[i].Float64)
		ex.AssertAreEqual(t, "upper", 50.0, upper[i].Float64)
		ex.AssertAreEqual(t, "lower", 50.0, lower[i].Float64)
	}
}

func TestRollingWindowShorterThanSeries(t *testing.T) {
	returns := returnSeriesFrom("SHORT", 0.1, 0.2)
	for _, v := range CalculateRollingVolatility(returns, 30, sm.Daily) {
		assert.False(t, v.Valid)
	}
}
