package core

import (
	"context"
	"time"

	m "ma/data/models"
	r "ma/data/repos"
	av "ma/service/api/alpha_vantage"
	sm "ma/service/models"
)

// RunHistoryRecorder keeps track of analysis runs, *repos.Postgres is the production implementation
type RunHistoryRecorder interface {
	InsertAnalysisRunHistory(ctx context.Context, symbols []string, benchmark string, start, end time.Time) (int32, error)
	UpdateAnalysisRunAsFailure(ctx context.Context, runId int32, errorMessage string) error
	UpdateAnalysisRunAsSuccess(ctx context.Context, runId int32) error
	GetAnalysisRunHistoryById(ctx context.Context, runId int32) (*m.AnalysisRunHistory, error)
}

type ServiceContext struct {
	Context            context.Context
	PostgresConnection *r.Postgres
	AlphaVantageClient *av.AlphaVantageClient
	PriceSource        PriceSource
	RunHistory         RunHistoryRecorder // optional
	Settings           sm.AnalysisSettings
}

// NewServiceContext wires the price source and run history from whatever connections are available.
// Stored bars are preferred, alpha vantage is queried directly when there is no database.
func NewServiceContext(ctx context.Context, pg *r.Postgres, avClient *av.AlphaVantageClient, settings sm.AnalysisSettings) *ServiceContext {
	sc := &ServiceContext{
		Context:            ctx,
		PostgresConnection: pg,
		AlphaVantageClient: avClient,
		Settings:           settings,
	}

	switch {
	case pg != nil:
		sc.PriceSource = &StorePriceSource{Store: pg}
		sc.RunHistory = pg
	case avClient != nil:
		sc.PriceSource = &AlphaVantagePriceSource{Client: avClient, Series: av.TimeSeriesDailyAdjusted}
	}

	return sc
}
