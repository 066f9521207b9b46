package models

import (
	"fmt"
	"time"
)

// AnalysisSettings are the knobs of the analytics engine, loaded from toml with these defaults
type AnalysisSettings struct {
	TradingDaysPerYear       int     `toml:"trading_days_per_year" json:"tradingDaysPerYear"`
	RollingVolatilityWindow  int     `toml:"rolling_volatility_window" json:"rollingVolatilityWindow"`
	ShortMovingAverageWindow int     `toml:"short_moving_average_window" json:"shortMovingAverageWindow"`
	LongMovingAverageWindow  int     `toml:"long_moving_average_window" json:"longMovingAverageWindow"`
	BandWidth                float64 `toml:"band_width" json:"bandWidth"` // number of standard deviations around the short average
	VaRConfidence            float64 `toml:"var_confidence" json:"varConfidence"`
	MinObservations          int     `toml:"min_observations" json:"minObservations"` // aligned price rows required for a run
	Workers                  int     `toml:"workers" json:"workers"`
	SyncStalenessDays        int     `toml:"sync_staleness_days" json:"syncStalenessDays"`
}

func DefaultAnalysisSettings() AnalysisSettings {
	return AnalysisSettings{
		TradingDaysPerYear:       Daily,
		RollingVolatilityWindow:  30,
		ShortMovingAverageWindow: 20,
		LongMovingAverageWindow:  60,
		BandWidth:                2,
		VaRConfidence:            0.95,
		MinObservations:          31, // one full rolling volatility window of returns
		Workers:                  8,
		SyncStalenessDays:        7,
	}
}

func (s AnalysisSettings) Validate() error {
	if s.TradingDaysPerYear <= 0 {
		return fmt.Errorf("trading days per year must be positive, got %d", s.TradingDaysPerYear)
	}
	// sample standard deviation needs two observations
	if s.RollingVolatilityWindow < 2 {
		return fmt.Errorf("rolling volatility window must be at least 2, got %d", s.RollingVolatilityWindow)
	}
	if s.ShortMovingAverageWindow < 2 {
		return fmt.Errorf("short moving average window must be at least 2, got %d", s.ShortMovingAverageWindow)
	}
	if s.LongMovingAverageWindow < 1 {
		return fmt.Errorf("long moving average window must be positive, got %d", s.LongMovingAverageWindow)
	}
	if s.BandWidth < 0 {
		return fmt.Errorf("band width cannot be negative, got %.2f", s.BandWidth)
	}
	if s.VaRConfidence <= 0 || s.VaRConfidence >= 1 {
		return fmt.Errorf("var confidence must be in (0, 1), got %.4f", s.VaRConfidence)
	}
	if s.MinObservations < 2 {
		return fmt.Errorf("min observations must be at least 2, got %d", s.MinObservations)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", s.Workers)
	}
	return nil
}

func (s AnalysisSettings) SyncStaleness() time.Duration {
	return time.Duration(s.SyncStalenessDays) * 24 * time.Hour
}
