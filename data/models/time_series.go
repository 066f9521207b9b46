package models

import (
	"time"

	"github.com/guregu/null/v6"
)

type TimeSeriesResult struct {
	Metadata   *TimeSeriesMetadata
	TimeSeries []*TimeSeriesData
}

// fields that alpha vantage may omit are nullable, the adjusted series has more columns than the raw one
type TimeSeriesMetadata struct {
	Id            int32       `db:"id"`
	Information   null.String `db:"-"`
	Symbol        string      `db:"symbol"`
	LastRefreshed time.Time   `db:"last_refreshed"`
	OutputSize    null.String `db:"-"`
	TimeZone      string      `db:"-"`
}

type TimeSeriesData struct {
	SourceId      int32      `db:"source_id"`
	Timestamp     time.Time  `db:"timestamp"`
	Open          null.Float `db:"open"`
	High          null.Float `db:"high"`
	Low           null.Float `db:"low"`
	Close         null.Float `db:"close"`
	AdjustedClose null.Float `db:"adjusted_close"`
	Volume        null.Float `db:"volume"`
}
