package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	ex "ma/data/extensions"
)

const (
	MaxSymbolsPerRequest = 50
	MaxSymbolLength      = 16
)

var ErrInvalidRequest = errors.New("invalid analysis request")

var validate = validator.New()

// AnalysisRequest is the validated, normalized form of an analysis request
type AnalysisRequest struct {
	Symbols                       []string
	Benchmark                     string
	Start                         time.Time
	End                           time.Time
	IncludeBenchmarkInCorrelation bool
}

// AnalysisRequestBody is what the front end posts, dates are yyyy-mm-dd
type AnalysisRequestBody struct {
	Symbols                       []string `json:"symbols" validate:"min=1,max=50,dive,max=128"`
	Benchmark                     string   `json:"benchmark" validate:"max=16"`
	Start                         string   `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End                           string   `json:"end" validate:"omitempty,datetime=2006-01-02"`
	IncludeBenchmarkInCorrelation bool     `json:"includeBenchmarkInCorrelation"`
}

func (b AnalysisRequestBody) ToRequest() (AnalysisRequest, error) {
	var start, end time.Time
	var err error

	if err = validate.Struct(b); err != nil {
		return AnalysisRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if strings.TrimSpace(b.Start) != "" {
		if start, err = time.Parse(time.DateOnly, strings.TrimSpace(b.Start)); err != nil {
			return AnalysisRequest{}, fmt.Errorf("%w: start date %q is not yyyy-mm-dd", ErrInvalidRequest, b.Start)
		}
	}
	if strings.TrimSpace(b.End) != "" {
		if end, err = time.Parse(time.DateOnly, strings.TrimSpace(b.End)); err != nil {
			return AnalysisRequest{}, fmt.Errorf("%w: end date %q is not yyyy-mm-dd", ErrInvalidRequest, b.End)
		}
	}

	return NewAnalysisRequest(b.Symbols, b.Benchmark, start, end, b.IncludeBenchmarkInCorrelation)
}

// NewAnalysisRequest upper cases and de-duplicates symbols and checks the window.
// A zero start or end leaves that side of the window open.
func NewAnalysisRequest(symbols []string, benchmark string, start, end time.Time, includeBenchmark bool) (AnalysisRequest, error) {
	cleaned := make([]string, 0, len(symbols))
	for _, s := range symbols {
		// full width commas separate symbols too
		for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' }) {
			if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
				cleaned = append(cleaned, p)
			}
		}
	}
	cleaned = ex.Distinct(cleaned, func(s string) string { return s })

	if len(cleaned) == 0 {
		return AnalysisRequest{}, fmt.Errorf("%w: at least one symbol is required", ErrInvalidRequest)
	}
	if len(cleaned) > MaxSymbolsPerRequest {
		return AnalysisRequest{}, fmt.Errorf("%w: at most %d symbols are allowed, got %d", ErrInvalidRequest, MaxSymbolsPerRequest, len(cleaned))
	}
	for _, s := range cleaned {
		if utf8.RuneCountInString(s) > MaxSymbolLength {
			return AnalysisRequest{}, fmt.Errorf("%w: symbol %q is longer than %d characters", ErrInvalidRequest, s, MaxSymbolLength)
		}
	}

	benchmark = strings.ToUpper(strings.TrimSpace(benchmark))
	if utf8.RuneCountInString(benchmark) > MaxSymbolLength {
		return AnalysisRequest{}, fmt.Errorf("%w: benchmark %q is longer than %d characters", ErrInvalidRequest, benchmark, MaxSymbolLength)
	}

	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return AnalysisRequest{}, fmt.Errorf("%w: end date %s must be after start date %s", ErrInvalidRequest, ex.FmtShort(end), ex.FmtShort(start))
	}

	return AnalysisRequest{
		Symbols:                       cleaned,
		Benchmark:                     benchmark,
		Start:                         start,
		End:                           end,
		IncludeBenchmarkInCorrelation: includeBenchmark,
	}, nil
}

// RequestedSymbols returns the instruments followed by the benchmark, if it is not already one of them
func (r AnalysisRequest) RequestedSymbols() []string {
	res := append([]string{}, r.Symbols...)
	if r.Benchmark != "" && !r.IsInstrument(r.Benchmark) {
		res = append(res, r.Benchmark)
	}
	return res
}

func (r AnalysisRequest) IsInstrument(symbol string) bool {
	for _, s := range r.Symbols {
		if ex.AreEqual(s, symbol) {
			return true
		}
	}
	return false
}
