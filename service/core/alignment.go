package core

import (
	"fmt"
	"slices"
	"time"

	"github.com/guregu/null/v6"

	ex "ma/data/extensions"
)

// AlignPriceHistories cleans every requested history and puts the survivors on the
// intersection of their trading dates. Symbols without a single usable bar are
// reported as failures and left out. A zero start or end leaves that side open.
func AlignPriceHistories(symbols []string, histories map[string][]PriceBar, start, end time.Time) (*AlignedPriceTable, []SymbolFailure, error) {
	var failures []SymbolFailure
	var warnings []string

	cleaned := make(map[string][]PriceBar, len(symbols))
	survivors := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		raw, ok := histories[symbol]
		if !ok || len(raw) == 0 {
			failures = append(failures, SymbolFailure{Symbol: symbol, Reason: "no price data returned"})
			continue
		}

		bars, dropped := cleanBars(raw, start, end)
		if dropped > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: dropped %d incomplete rows", symbol, dropped))
		}

		if len(bars) == 0 {
			failures = append(failures, SymbolFailure{Symbol: symbol, Reason: "no usable price data in the requested window"})
			continue
		}

		cleaned[symbol] = bars
		survivors = append(survivors, symbol)
	}

	if len(survivors) == 0 {
		return nil, failures, &InsufficientDataError{
			Requested: symbols,
			Failed:    failures,
			Reason:    "no symbol returned usable price data",
		}
	}

	dates := intersectDates(survivors, cleaned)
	if len(dates) == 0 {
		return nil, failures, &InsufficientDataError{
			Requested: symbols,
			Failed:    failures,
			Reason:    "symbols share no trading dates",
		}
	}

	table := &AlignedPriceTable{
		Dates:    dates,
		Symbols:  survivors,
		Series:   make(map[string]*PriceSeries, len(survivors)),
		Warnings: warnings,
	}

	for _, symbol := range survivors {
		table.Series[symbol] = buildPriceSeries(symbol, dates, cleaned[symbol])
	}

	return table, failures, nil
}

// cleanBars normalizes dates, applies the window, drops incomplete rows and
// de-duplicates by date keeping the last bar seen. The result is sorted.
func cleanBars(raw []PriceBar, start, end time.Time) ([]PriceBar, int) {
	startDay := ex.TruncateToDay(start)
	endDay := ex.TruncateToDay(end)

	dropped := 0
	bars := make([]PriceBar, 0, len(raw))
	for _, b := range raw {
		b.Date = ex.TruncateToDay(b.Date)

		if !start.IsZero() && b.Date.Before(startDay) {
			continue
		}
		if !end.IsZero() && b.Date.After(endDay) {
			continue
		}
		if !isComplete(b) {
			dropped++
			continue
		}
		bars = append(bars, b)
	}

	// stable so the later duplicate stays later
	slices.SortStableFunc(bars, func(a, b PriceBar) int { return a.Date.Compare(b.Date) })

	res := bars[:0]
	for _, b := range bars {
		if n := len(res); n > 0 && res[n-1].Date.Equal(b.Date) {
			res[n-1] = b
			continue
		}
		res = append(res, b)
	}

	return res, dropped
}

func isComplete(b PriceBar) bool {
	for _, f := range []struct {
		valid bool
		value float64
	}{
		{b.High.Valid, b.High.Float64},
		{b.Low.Valid, b.Low.Float64},
		{b.Close.Valid, b.Close.Float64},
		{b.Volume.Valid, b.Volume.Float64},
	} {
		if !f.valid || !ex.IsFinite(f.value) {
			return false
		}
	}
	return true
}

func intersectDates(symbols []string, cleaned map[string][]PriceBar) []time.Time {
	counts := make(map[time.Time]int)
	for _, symbol := range symbols {
		for _, b := range cleaned[symbol] {
			counts[b.Date]++
		}
	}

	dates := make([]time.Time, 0, len(counts))
	for d, c := range counts {
		if c == len(symbols) {
			dates = append(dates, d)
		}
	}

	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return dates
}

func buildPriceSeries(symbol string, dates []time.Time, bars []PriceBar) *PriceSeries {
	byDate := make(map[time.Time]PriceBar, len(bars))
	for _, b := range bars {
		byDate[b.Date] = b
	}

	n := len(dates)
	ps := &PriceSeries{
		Symbol: symbol,
		Dates:  dates,
		Open:   make([]null.Float, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}

	for i, d := range dates {
		b := byDate[d]
		ps.Open[i] = b.Open
		ps.High[i] = b.High.Float64
		ps.Low[i] = b.Low.Float64
		ps.Close[i] = b.Close.Float64
		ps.Volume[i] = b.Volume.Float64
	}

	return ps
}
