package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	ex "ma/data/extensions"
	"ma/service/logger"
	"ma/service/metrics"
	sm "ma/service/models"
)

// RunAnalysis turns raw price histories into the full analysis of a request. It performs no I/O,
// histories is keyed by upper case symbol and may hold the benchmark.
func RunAnalysis(req sm.AnalysisRequest, histories map[string][]PriceBar, settings sm.AnalysisSettings) (*AnalysisResult, error) {
	start := time.Now()
	runName := strings.Join(req.Symbols, ",")

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis settings: %w", err)
	}
	if len(req.Symbols) == 0 {
		return nil, fmt.Errorf("%w: at least one symbol is required", sm.ErrInvalidRequest)
	}

	requested := req.RequestedSymbols()
	logger.Info().Str("run", runName).Dur("time", time.Since(start)).Msg("aligning price histories")
	table, failures, err := AlignPriceHistories(requested, histories, req.Start, req.End)
	observeStage("align", start)
	if err != nil {
		logger.Warn().Str("run", runName).Err(err).Msg("alignment failed")
		return nil, err
	}

	instruments := ex.FilterMultiple(table.Symbols, req.IsInstrument)
	if len(instruments) == 0 {
		return nil, &InsufficientDataError{
			Requested: requested,
			Failed:    failures,
			Reason:    "none of the requested instruments returned usable price data",
		}
	}

	if len(table.Dates) < settings.MinObservations {
		return nil, &InsufficientDataError{
			Requested: requested,
			Failed:    failures,
			Reason:    fmt.Sprintf("%d aligned %s, at least %d are required", len(table.Dates), sm.ConvertFrequencyToString(settings.TradingDaysPerYear), settings.MinObservations),
		}
	}

	warnings := slices.Clone(table.Warnings)
	benchmark := ""
	if req.Benchmark != "" {
		if table.Has(req.Benchmark) {
			benchmark = req.Benchmark
		} else {
			warnings = append(warnings, fmt.Sprintf("benchmark %s has no usable data, beta and alpha are omitted", req.Benchmark))
		}
	}

	logger.Info().Str("run", runName).Int("observations", len(table.Dates)).Dur("time", time.Since(start)).Msg("calculating returns")
	returns := make(map[string]*ReturnSeries, len(table.Symbols))
	for _, symbol := range table.Symbols {
		series := table.Series[symbol]
		r, w := CalculateReturns(symbol, series.Dates, series.Close)
		returns[symbol] = r
		warnings = append(warnings, w...)
	}

	var reference *BenchmarkReference
	if benchmark != "" {
		reference = NewBenchmarkReference(returns[benchmark], table.Closes(benchmark), settings)
	}

	// instruments first, then the benchmark gets its own record without beta and alpha
	analysed := slices.Clone(instruments)
	if benchmark != "" && !req.IsInstrument(benchmark) {
		analysed = append(analysed, benchmark)
	}

	logger.Info().Str("run", runName).Int("symbols", len(analysed)).Dur("time", time.Since(start)).Msg("calculating per symbol statistics")
	analyses := make([]*SymbolAnalysis, len(analysed))
	symbolWarnings := make([][]string, len(analysed))

	g := new(errgroup.Group)
	g.SetLimit(settings.Workers)
	for i, symbol := range analysed {
		g.Go(func() error {
			ref := reference
			if symbol == benchmark {
				ref = nil
			}
			analyses[i], symbolWarnings[i] = analyzeSymbol(table.Series[symbol], returns[symbol], ref, settings)
			analyses[i].IsBenchmark = symbol == benchmark
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	observeStage("statistics", start)

	for _, w := range symbolWarnings {
		warnings = append(warnings, w...)
	}

	correlated := slices.Clone(instruments)
	if req.IncludeBenchmarkInCorrelation && benchmark != "" && !req.IsInstrument(benchmark) {
		correlated = append(correlated, benchmark)
	}
	correlationInputs := make([]*ReturnSeries, len(correlated))
	for i, symbol := range correlated {
		correlationInputs[i] = returns[symbol]
	}

	logger.Info().Str("run", runName).Dur("time", time.Since(start)).Msg("calculating correlation matrix")
	correlation := CalculateCorrelationMatrix(correlationInputs)
	observeStage("total", start)

	for _, w := range warnings {
		logger.Debug().Str("run", runName).Msg(w)
	}
	logger.Info().Str("run", runName).Int("failed", len(failures)).Int("warnings", len(warnings)).Dur("time", time.Since(start)).Msg("analysis completed")

	return &AnalysisResult{
		Symbols:       instruments,
		Benchmark:     benchmark,
		Start:         table.Dates[0],
		End:           table.Dates[len(table.Dates)-1],
		Observations:  len(table.Dates),
		Prices:        table,
		Analyses:      analyses,
		Correlation:   correlation,
		FailedSymbols: failures,
		Warnings:      warnings,
	}, nil
}

func analyzeSymbol(prices *PriceSeries, returns *ReturnSeries, benchmark *BenchmarkReference, settings sm.AnalysisSettings) (*SymbolAnalysis, []string) {
	rolling := CalculateRollingStats(returns, prices, settings)
	drawdowns := CalculateDrawdowns(prices.Symbol, prices.Dates, prices.Close)
	stats, warnings := CalculatePerformanceStats(returns, prices.Close, drawdowns, benchmark, settings)
	cumulative := CalculateCumulativeReturns(returns)

	return &SymbolAnalysis{
		Symbol:       prices.Symbol,
		Returns:      returns,
		Cumulative:   cumulative,
		Rolling:      rolling,
		Drawdowns:    drawdowns,
		Stats:        stats,
		Distribution: CalculateDistributionSummary(returns, cumulative, prices.Close, rolling.Volatility),
	}, warnings
}

// mergeFailures keeps the first reason reported for each symbol
func mergeFailures(failures ...[]SymbolFailure) []SymbolFailure {
	var all []SymbolFailure
	for _, f := range failures {
		all = append(all, f...)
	}
	return ex.Distinct(all, func(f SymbolFailure) string { return f.Symbol })
}

func observeStage(stage string, start time.Time) {
	metrics.AnalysisDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func isInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
