package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	ex "ma/data/extensions"
	m "ma/data/models"
	av "ma/service/api/alpha_vantage"
	"ma/service/logger"
	"ma/service/metrics"
	sm "ma/service/models"
)

// PriceSource supplies daily bars for a symbol inside [start, end]. A zero start or end leaves that side open.
type PriceSource interface {
	GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]PriceBar, error)
}

type TimeSeriesStore interface {
	GetTimeSeriesData(ctx context.Context, symbol string, start, end time.Time) ([]*m.TimeSeriesData, error)
}

// StorePriceSource reads bars previously synced into postgres
type StorePriceSource struct {
	Store TimeSeriesStore
}

func (s *StorePriceSource) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]PriceBar, error) {
	if start.IsZero() {
		start = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}

	data, err := s.Store.GetTimeSeriesData(ctx, symbol, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return barsFromTimeSeries(data), nil
}

// AlphaVantagePriceSource calls alpha vantage for every request, the window is applied locally
type AlphaVantagePriceSource struct {
	Client *av.AlphaVantageClient
	Series av.TimeSeries
}

func (s *AlphaVantagePriceSource) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]PriceBar, error) {
	tsr, err := s.Client.GetDailyTimeSeries(ctx, symbol, s.Series)
	if err != nil {
		return nil, err
	}

	startDay, endDay := ex.TruncateToDay(start), ex.TruncateToDay(end)
	f := func(t *m.TimeSeriesData) bool {
		day := ex.TruncateToDay(t.Timestamp)
		return (start.IsZero() || !day.Before(startDay)) && (end.IsZero() || !day.After(endDay))
	}
	return barsFromTimeSeries(ex.FilterMultiplePtr(tsr.TimeSeries, f)), nil
}

// barsFromTimeSeries prefers the adjusted close so returns include splits and dividends
func barsFromTimeSeries(data []*m.TimeSeriesData) []PriceBar {
	bars := make([]PriceBar, 0, len(data))
	for _, d := range data {
		if d == nil {
			continue
		}
		closePrice := d.Close
		if d.AdjustedClose.Valid {
			closePrice = d.AdjustedClose
		}
		bars = append(bars, PriceBar{
			Date:   d.Timestamp,
			Open:   d.Open,
			High:   d.High,
			Low:    d.Low,
			Close:  closePrice,
			Volume: d.Volume,
		})
	}
	return bars
}

// FetchPriceHistories asks the source for every symbol in parallel. A symbol that errors is
// reported as a failure and never stops the others.
func FetchPriceHistories(ctx context.Context, source PriceSource, symbols []string, start, end time.Time, workers int) (map[string][]PriceBar, []SymbolFailure) {
	histories := make(map[string][]PriceBar, len(symbols))
	failed := make([]*SymbolFailure, len(symbols))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(max(workers, 1))
	for i, symbol := range symbols {
		g.Go(func() error {
			bars, err := source.GetDailyBars(ctx, symbol, start, end)
			if err != nil {
				logger.Warn().Str("symbol", symbol).Err(err).Msg("error fetching price history")
				failed[i] = &SymbolFailure{Symbol: symbol, Reason: fmt.Sprintf("error fetching price history: %v", err)}
				return nil
			}

			mu.Lock()
			histories[symbol] = bars
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var failures []SymbolFailure
	for _, f := range failed {
		if f != nil {
			failures = append(failures, *f)
		}
	}

	return histories, failures
}

// RunAnalysisForRequest fetches the histories for a request, runs the analysis and records the run
func (sc *ServiceContext) RunAnalysisForRequest(ctx context.Context, req sm.AnalysisRequest) (*AnalysisResult, error) {
	if sc.PriceSource == nil {
		return nil, errors.New("no price source has been configured")
	}

	start := time.Now()
	runId, err := sc.insertRunHistory(ctx, req)
	if err != nil {
		return nil, err
	}

	logger.Info().Strs("symbols", req.Symbols).Str("benchmark", req.Benchmark).Dur("time", time.Since(start)).Msg("fetching price histories")
	histories, fetchFailures := FetchPriceHistories(ctx, sc.PriceSource, req.RequestedSymbols(), req.Start, req.End, sc.Settings.Workers)
	observeStage("fetch", start)

	res, err := RunAnalysis(req, histories, sc.Settings)
	if err != nil {
		var ide *InsufficientDataError
		if errors.As(err, &ide) {
			ide.Failed = mergeFailures(fetchFailures, ide.Failed)
			countFailedSymbols(ide.Failed)
		}

		metrics.AnalysisRunsTotal.WithLabelValues("failure").Inc()
		sc.markRunAsFailure(ctx, runId, err)
		return nil, err
	}

	res.FailedSymbols = mergeFailures(fetchFailures, res.FailedSymbols)
	countFailedSymbols(res.FailedSymbols)

	if sc.RunHistory != nil {
		if err := sc.RunHistory.UpdateAnalysisRunAsSuccess(ctx, runId); err != nil {
			logger.Error().Int32("runId", runId).Err(err).Msg("error updating analysis run as success")
			return nil, err // if we cant mark it a success we most likely cant mark it a failure either
		}
	}

	metrics.AnalysisRunsTotal.WithLabelValues("success").Inc()
	logger.Info().Int32("runId", runId).Dur("time", time.Since(start)).Msg("analysis request completed")
	return res, nil
}

func (sc *ServiceContext) insertRunHistory(ctx context.Context, req sm.AnalysisRequest) (int32, error) {
	if sc.RunHistory == nil {
		return 0, nil
	}

	runId, err := sc.RunHistory.InsertAnalysisRunHistory(ctx, req.Symbols, req.Benchmark, req.Start, req.End)
	if err != nil {
		logger.Error().Strs("symbols", req.Symbols).Err(err).Msg("error inserting analysis run history")
		return 0, err
	}
	return runId, nil
}

func (sc *ServiceContext) markRunAsFailure(ctx context.Context, runId int32, cause error) {
	if sc.RunHistory == nil {
		return
	}
	if err := sc.RunHistory.UpdateAnalysisRunAsFailure(ctx, runId, cause.Error()); err != nil {
		logger.Error().Int32("runId", runId).Err(err).Msg("error updating analysis run as failure")
	}
}

func countFailedSymbols(failures []SymbolFailure) {
	metrics.FailedSymbolsTotal.Add(float64(len(failures)))
}

// SyncSymbolTimeSeriesData pulls the daily adjusted series of a symbol from alpha vantage and stores
// the bars newer than what is already in postgres. Symbols refreshed inside the staleness window are skipped.
func (sc *ServiceContext) SyncSymbolTimeSeriesData(ctx context.Context, symbol string) (time.Time, error) {
	if sc.PostgresConnection == nil || sc.AlphaVantageClient == nil {
		return time.Time{}, errors.New("syncing requires both a database and an alpha vantage client")
	}

	md, err := sc.PostgresConnection.GetMetaDataBySymbol(ctx, symbol)
	if err != nil {
		metrics.SymbolSyncTotal.WithLabelValues("failure").Inc()
		return time.Time{}, fmt.Errorf("error determining if meta data exists in sync data: %w", err)
	}

	if md == nil {
		logger.Info().Str("symbol", symbol).Msg("adding new symbol to db")
		md = &m.TimeSeriesMetadata{
			Symbol:        symbol,
			LastRefreshed: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		}

		if err := sc.PostgresConnection.InsertNewMetaData(ctx, md, nil); err != nil {
			metrics.SymbolSyncTotal.WithLabelValues("failure").Inc()
			return time.Time{}, fmt.Errorf("error adding %s to db: %w", symbol, err)
		}
	}

	cutoffDate := time.Now().Add(-sc.Settings.SyncStaleness())
	if md.LastRefreshed.After(cutoffDate) {
		logger.Info().Str("symbol", symbol).Str("lastRefreshed", ex.FmtShort(md.LastRefreshed)).Msg("data was refreshed recently, skipping sync")
		metrics.SymbolSyncTotal.WithLabelValues("skipped").Inc()
		return md.LastRefreshed, nil
	}

	mrd, err := sc.PostgresConnection.GetMostRecentTimestampForSymbol(ctx, symbol)
	if err != nil {
		metrics.SymbolSyncTotal.WithLabelValues("failure").Inc()
		return time.Time{}, fmt.Errorf("error getting most recent time series date for symbol %s: %w", symbol, err)
	}

	tsr, err := sc.AlphaVantageClient.GetDailyTimeSeries(ctx, symbol, av.TimeSeriesDailyAdjusted)
	if err != nil {
		metrics.SymbolSyncTotal.WithLabelValues("failure").Inc()
		return time.Time{}, err
	}

	f := func(t *m.TimeSeriesData) bool { return mrd == nil || t.Timestamp.After(*mrd) }
	toInsert := ex.FilterMultiplePtr(tsr.TimeSeries, f)

	tx, err := sc.PostgresConnection.GetTransaction(ctx)
	if err != nil {
		metrics.SymbolSyncTotal.WithLabelValues("failure").Inc()
		return time.Time{}, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	var ra int64
	if len(toInsert) > 0 {
		ra, err = sc.PostgresConnection.InsertTimeSeriesData(ctx, toInsert, &md.Id, &tx)
		if err != nil {
			metrics.SymbolSyncTotal.WithLabelValues("failure").Inc()
			return time.Time{}, fmt.Errorf("error inserting time series data: %w", err)
		}
	}

	if err := sc.PostgresConnection.UpdateLastRefreshedDate(ctx, symbol, tsr.Metadata.LastRefreshed, &tx); err != nil {
		metrics.SymbolSyncTotal.WithLabelValues("failure").Inc()
		return time.Time{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.SymbolSyncTotal.WithLabelValues("failure").Inc()
		return time.Time{}, fmt.Errorf("error committing transaction to sync symbol %s: %w", symbol, err)
	}

	metrics.SymbolSyncTotal.WithLabelValues("success").Inc()
	logger.Info().Str("symbol", symbol).Int("received", len(tsr.TimeSeries)).Int64("inserted", ra).Msg("synced time series data")
	return tsr.Metadata.LastRefreshed, nil
}
