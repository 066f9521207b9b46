package models

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalysisRequestNormalizesSymbols(t *testing.T) {
	req, err := NewAnalysisRequest([]string{" aapl, msft", "GOOGL，aapl", ""}, " spy ", time.Time{}, time.Time{}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, req.Symbols)
	assert.Equal(t, "SPY", req.Benchmark)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL", "SPY"}, req.RequestedSymbols())
}

func TestNewAnalysisRequestBenchmarkAlreadyInstrument(t *testing.T) {
	req, err := NewAnalysisRequest([]string{"SPY", "QQQ"}, "spy", time.Time{}, time.Time{}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"SPY", "QQQ"}, req.RequestedSymbols())
	assert.True(t, req.IsInstrument("SPY"))
	assert.True(t, req.IsInstrument("qqq"))
	assert.False(t, req.IsInstrument("IWM"))
}

func TestNewAnalysisRequestRejectsBadInput(t *testing.T) {
	_, err := NewAnalysisRequest([]string{" ", ","}, "", time.Time{}, time.Time{}, false)
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	_, err = NewAnalysisRequest([]string{"AAPL"}, "", start, start, false)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestNewAnalysisRequestBoundsSymbolLength(t *testing.T) {
	_, err := NewAnalysisRequest([]string{strings.Repeat("A", MaxSymbolLength)}, "", time.Time{}, time.Time{}, false)
	require.NoError(t, err)

	_, err = NewAnalysisRequest([]string{strings.Repeat("A", MaxSymbolLength+1)}, "", time.Time{}, time.Time{}, false)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = NewAnalysisRequest([]string{"AAPL"}, strings.Repeat("B", MaxSymbolLength+1), time.Time{}, time.Time{}, false)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAnalysisRequestBodyParsesDates(t *testing.T) {
	req, err := AnalysisRequestBody{Symbols: []string{"AAPL"}, Start: "2024-01-02", End: "2024-12-31"}.ToRequest()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), req.End)

	_, err = AnalysisRequestBody{Symbols: []string{"AAPL"}, Start: "01/02/2024"}.ToRequest()
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAnalysisRequestBodyValidation(t *testing.T) {
	tooMany := make([]string, MaxSymbolsPerRequest+1)
	for i := range tooMany {
		tooMany[i] = "S" + strconv.Itoa(i)
	}

	cases := []struct {
		name string
		body AnalysisRequestBody
	}{
		{"no symbols", AnalysisRequestBody{}},
		{"too many symbols", AnalysisRequestBody{Symbols: tooMany}},
		{"long benchmark", AnalysisRequestBody{Symbols: []string{"AAPL"}, Benchmark: "ABCDEFGHIJKLMNOPQ"}},
		{"bad end", AnalysisRequestBody{Symbols: []string{"AAPL"}, End: "2024-13-01"}},
		{"huge symbol", AnalysisRequestBody{Symbols: []string{strings.Repeat("X", 200)}}},
		{"long symbol", AnalysisRequestBody{Symbols: []string{strings.Repeat("X", MaxSymbolLength+1)}}},
		{"too many after splitting", AnalysisRequestBody{Symbols: []string{strings.Join(tooMany[:30], ","), strings.Join(tooMany[30:], ",")}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.body.ToRequest()
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestDefaultAnalysisSettingsAreValid(t *testing.T) {
	s := DefaultAnalysisSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, 252, s.TradingDaysPerYear)
	assert.Equal(t, 7*24*time.Hour, s.SyncStaleness())

	s.RollingVolatilityWindow = 1
	assert.Error(t, s.Validate())

	s = DefaultAnalysisSettings()
	s.VaRConfidence = 1
	assert.Error(t, s.Validate())
}
