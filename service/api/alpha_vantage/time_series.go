package alpha_vantage

import (
	"strings"
)

// TimeSeries specifies which daily series to query for stock data.
type TimeSeries uint8

const (
	TimeSeriesDaily TimeSeries = iota
	TimeSeriesDailyAdjusted
)

func (t TimeSeries) Name() string {
	switch t {
	case TimeSeriesDaily:
		return "TimeSeriesDaily"
	case TimeSeriesDailyAdjusted:
		return "TimeSeriesDailyAdjusted"
	default:
		return ""
	}
}

func (t TimeSeries) Function() string {
	switch t {
	case TimeSeriesDaily:
		return "TIME_SERIES_DAILY"
	case TimeSeriesDailyAdjusted:
		return "TIME_SERIES_DAILY_ADJUSTED"
	default:
		return ""
	}
}

// both daily functions return their bars under the same key
func (t TimeSeries) TimeSeriesKey() string {
	switch t {
	case TimeSeriesDaily, TimeSeriesDailyAdjusted:
		return "Time Series (Daily)"
	default:
		return ""
	}
}

func (t TimeSeries) IsAdjusted() bool {
	return strings.HasSuffix(t.Function(), "_ADJUSTED")
}
