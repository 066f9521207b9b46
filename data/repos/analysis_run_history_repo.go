package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"
	m "ma/data/models"
	q "ma/data/queries"
)

func (pg *Postgres) InsertAnalysisRunHistory(ctx context.Context, symbols []string, benchmark string, start, end time.Time) (int32, error) {
	sql := q.Get(q.QueryHelper.Insert.AnalysisRun)
	args := pgx.NamedArgs{
		"symbols":    symbols,
		"benchmark":  null.NewString(benchmark, benchmark != ""),
		"start_date": start,
		"end_date":   end,
	}

	var runId int32
	if err := pg.db.QueryRow(ctx, sql, args).Scan(&runId); err != nil {
		return 0, fmt.Errorf("error inserting analysis run history: %w", err)
	}

	return runId, nil
}

func (pg *Postgres) UpdateAnalysisRunAsFailure(ctx context.Context, runId int32, errorMessage string) error {
	cleanErrorMessage := strings.TrimSpace(errorMessage)
	if cleanErrorMessage == "" {
		return fmt.Errorf("error message is required if analysis run is failing, occured in %d", runId)
	}

	return pg.updateAnalysisRun(ctx, pgx.NamedArgs{
		"id":            runId,
		"status":        m.AnalysisRunStatusFailure,
		"error_message": cleanErrorMessage,
	})
}

func (pg *Postgres) UpdateAnalysisRunAsSuccess(ctx context.Context, runId int32) error {
	return pg.updateAnalysisRun(ctx, pgx.NamedArgs{
		"id":            runId,
		"status":        m.AnalysisRunStatusSuccess,
		"error_message": nil,
	})
}

func (pg *Postgres) updateAnalysisRun(ctx context.Context, args pgx.NamedArgs) error {
	sql := q.Get(q.QueryHelper.Update.AnalysisRun)
	if _, err := pg.db.Exec(ctx, sql, args); err != nil {
		return fmt.Errorf("error updating analysis run: %w", err)
	}
	return nil
}

func (pg *Postgres) GetAnalysisRunHistoryById(ctx context.Context, runId int32) (*m.AnalysisRunHistory, error) {
	sql := q.Get(q.QueryHelper.Select.AnalysisRunById)
	res, err := Query[m.AnalysisRunHistory](ctx, pg, sql, pgx.NamedArgs{"id": runId})
	if err != nil {
		return nil, fmt.Errorf("unable to get analysis run by id (%d): %w", runId, err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	return res[0], nil
}
