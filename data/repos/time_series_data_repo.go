package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	m "ma/data/models"
	q "ma/data/queries"
)

// GetTimeSeriesData returns the bars for a symbol inside [start, end], oldest first
func (pg *Postgres) GetTimeSeriesData(ctx context.Context, symbol string, start, end time.Time) ([]*m.TimeSeriesData, error) {
	sql := q.Get(q.QueryHelper.Select.TimeSeriesData)
	args := pgx.NamedArgs{
		"symbol":     symbol,
		"start_date": start,
		"end_date":   end,
	}

	res, err := Query[m.TimeSeriesData](ctx, pg, sql, args)
	if err != nil {
		return nil, fmt.Errorf("unable to query data by symbol (%s): %w", symbol, err)
	}
	return res, nil
}

// GetMostRecentTimestampForSymbol returns nil when nothing has been stored for the symbol yet
func (pg *Postgres) GetMostRecentTimestampForSymbol(ctx context.Context, symbol string) (*time.Time, error) {
	sql := q.Get(q.QueryHelper.Select.MostRecentTimestampBySymbol)
	args := pgx.NamedArgs{
		"symbol": symbol,
	}

	var res *time.Time
	if err := pg.db.QueryRow(ctx, sql, args).Scan(&res); err != nil {
		return nil, fmt.Errorf("unable to query most recent timestamp for symbol (%s): %w", symbol, err)
	}
	return res, nil
}

func (pg *Postgres) InsertTimeSeriesData(ctx context.Context, data []*m.TimeSeriesData, sourceId *int32, tx *pgx.Tx) (int64, error) {
	columns := []string{
		"source_id", "timestamp", "open", "high", "low",
		"close", "adjusted_close", "volume",
	}

	entries := make([][]any, len(data))
	for i, ent := range data {
		id := ent.SourceId
		if sourceId != nil {
			id = *sourceId
		}

		entries[i] = []any{
			id, ent.Timestamp, ent.Open, ent.High, ent.Low,
			ent.Close, ent.AdjustedClose, ent.Volume,
		}
	}

	return pg.BulkInsert(ctx, "av_time_series_data", columns, entries, tx)
}
