package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// ErrInsufficientData is returned when too few symbols or aligned observations remain to analyse
var ErrInsufficientData = errors.New("insufficient data")

// PriceBar is one trading day for one symbol as it comes out of a PriceSource.
// Anything can be missing here, alignment drops the rows that cannot be used.
type PriceBar struct {
	Date   time.Time
	Open   null.Float // optional, never used by the engine
	High   null.Float
	Low    null.Float
	Close  null.Float
	Volume null.Float
}

// PriceSeries is a cleaned, aligned price history. Every slice has len(Dates) entries.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Dates  []time.Time  `json:"-"` // shared with the table
	Open   []null.Float `json:"open"`
	High   []float64    `json:"high"`
	Low    []float64    `json:"low"`
	Close  []float64    `json:"close"`
	Volume []float64    `json:"volume"`
}

func (ps *PriceSeries) Len() int {
	return len(ps.Dates)
}

// AlignedPriceTable holds every surviving symbol on one shared date index
type AlignedPriceTable struct {
	Dates    []time.Time             `json:"dates"`
	Symbols  []string                `json:"symbols"` // request order, failed symbols removed
	Series   map[string]*PriceSeries `json:"series"`
	Warnings []string                `json:"-"`
}

func (t *AlignedPriceTable) Has(symbol string) bool {
	_, ok := t.Series[symbol]
	return ok
}

func (t *AlignedPriceTable) Closes(symbol string) []float64 {
	if s, ok := t.Series[symbol]; ok {
		return s.Close
	}
	return nil
}

// SymbolFailure is a symbol excluded from a run because no usable data was available
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

type InsufficientDataError struct {
	Requested []string
	Failed    []SymbolFailure
	Reason    string
}

func (e *InsufficientDataError) Error() string {
	msg := fmt.Sprintf("%s: %s (requested %s)", ErrInsufficientData, e.Reason, strings.Join(e.Requested, ", "))
	if len(e.Failed) == 0 {
		return msg
	}

	failed := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		failed[i] = fmt.Sprintf("%s: %s", f.Symbol, f.Reason)
	}
	return fmt.Sprintf("%s, failed [%s]", msg, strings.Join(failed, "; "))
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// ReturnSeries holds simple returns, indexed by dates[1:] of the price index.
// An unset value marks a return that could not be computed.
type ReturnSeries struct {
	Symbol string       `json:"symbol"`
	Dates  []time.Time  `json:"dates"`
	Values []null.Float `json:"values"`
}

func (r *ReturnSeries) Len() int {
	return len(r.Values)
}

// Defined returns the computable returns in order
func (r *ReturnSeries) Defined() []float64 {
	res := make([]float64, 0, len(r.Values))
	for _, v := range r.Values {
		if v.Valid {
			res = append(res, v.Float64)
		}
	}
	return res
}

type CumulativeReturnSeries struct {
	Symbol string       `json:"symbol"`
	Dates  []time.Time  `json:"dates"`
	Values []null.Float `json:"values"`
}

// Last is the most recent defined cumulative return, 0 if there is none
func (c *CumulativeReturnSeries) Last() float64 {
	for i := len(c.Values) - 1; i >= 0; i-- {
		if c.Values[i].Valid {
			return c.Values[i].Float64
		}
	}
	return 0
}

type DrawdownSeries struct {
	Symbol          string      `json:"symbol"`
	Dates           []time.Time `json:"dates"`
	Values          []float64   `json:"values"`
	RunningMax      []float64   `json:"runningMax"`
	MaxDrawdown     float64     `json:"maxDrawdown"`
	MaxDrawdownDate time.Time   `json:"maxDrawdownDate"`
}

// RollingStats carries the rolling volatility on the return index and
// the moving averages and bands on the price index
type RollingStats struct {
	ReturnDates []time.Time  `json:"returnDates"`
	Volatility  []null.Float `json:"volatility"`
	PriceDates  []time.Time  `json:"priceDates"`
	ShortMA     []null.Float `json:"shortMovingAverage"`
	LongMA      []null.Float `json:"longMovingAverage"`
	UpperBand   []null.Float `json:"upperBand"`
	LowerBand   []null.Float `json:"lowerBand"`
}

type StatsRecord struct {
	TotalReturn          float64    `json:"totalReturn"`
	AnnualizedReturn     float64    `json:"annualizedReturn"`
	AnnualizedVolatility float64    `json:"annualizedVolatility"`
	Sharpe               float64    `json:"sharpe"`
	Sortino              float64    `json:"sortino"`
	Calmar               float64    `json:"calmar"`
	MaxDrawdown          float64    `json:"maxDrawdown"`
	MaxDrawdownDate      time.Time  `json:"maxDrawdownDate"`
	VaR                  float64    `json:"var"`
	CVaR                 float64    `json:"cvar"`
	Beta                 null.Float `json:"beta"`
	Alpha                null.Float `json:"alpha"`
	Observations         int        `json:"observations"`
}

type DistributionSummary struct {
	MeanReturn            float64    `json:"meanReturn"`
	StdDevReturn          float64    `json:"stdDevReturn"`
	Skewness              float64    `json:"skewness"`
	ExcessKurtosis        float64    `json:"excessKurtosis"`
	FirstClose            float64    `json:"firstClose"`
	LastClose             float64    `json:"lastClose"`
	MaxClose              float64    `json:"maxClose"`
	MinClose              float64    `json:"minClose"`
	CumulativeReturnMax   null.Float `json:"cumulativeReturnMax"`
	CumulativeReturnMin   null.Float `json:"cumulativeReturnMin"`
	RollingVolatilityMean null.Float `json:"rollingVolatilityMean"`
	RollingVolatilityMax  null.Float `json:"rollingVolatilityMax"`
	RollingVolatilityMin  null.Float `json:"rollingVolatilityMin"`
}

type SymbolAnalysis struct {
	Symbol       string                  `json:"symbol"`
	IsBenchmark  bool                    `json:"isBenchmark"`
	Returns      *ReturnSeries           `json:"returns"`
	Cumulative   *CumulativeReturnSeries `json:"cumulativeReturns"`
	Rolling      *RollingStats           `json:"rolling"`
	Drawdowns    *DrawdownSeries         `json:"drawdowns"`
	Stats        StatsRecord             `json:"stats"`
	Distribution DistributionSummary     `json:"distribution"`
}

type AnalysisResult struct {
	Symbols       []string           `json:"symbols"`
	Benchmark     string             `json:"benchmark,omitempty"`
	Start         time.Time          `json:"start"`
	End           time.Time          `json:"end"`
	Observations  int                `json:"observations"`
	Prices        *AlignedPriceTable `json:"prices"`
	Analyses      []*SymbolAnalysis  `json:"analyses"`
	Correlation   *CorrelationMatrix `json:"correlation"`
	FailedSymbols []SymbolFailure    `json:"failedSymbols"`
	Warnings      []string           `json:"warnings"`
}

// Analysis finds the per symbol result, nil when the symbol was not analysed
func (r *AnalysisResult) Analysis(symbol string) *SymbolAnalysis {
	for _, a := range r.Analyses {
		if a.Symbol == symbol {
			return a
		}
	}
	return nil
}
