package queries

import (
	"embed"
	"fmt"
)

//go:embed insert/*.sql select/*.sql update/*.sql
var Files embed.FS

// ^^^ the go:embed directive is used to embed the files in the queries package
// meaning on compile time it will convert the files to binary data and embed it in the queries package

type InsertQueries struct {
	Metadata    string
	AnalysisRun string
}

type SelectQueries struct {
	AnalysisRunById             string
	MetaDataBySymbol            string
	MostRecentTimestampBySymbol string
	TimeSeriesData              string
}

type UpdateQueries struct {
	LastRefreshedDate string
	AnalysisRun       string
}

type QueryHelperStruct struct {
	Insert InsertQueries
	Select SelectQueries
	Update UpdateQueries
}

var QueryHelper = QueryHelperStruct{
	Insert: InsertQueries{
		Metadata:    "insert/metadata.sql",
		AnalysisRun: "insert/analysis_run.sql",
	},
	Select: SelectQueries{
		AnalysisRunById:             "select/analysis_run_by_id.sql",
		MetaDataBySymbol:            "select/meta_data_by_symbol.sql",
		MostRecentTimestampBySymbol: "select/most_recent_timestamp_by_symbol.sql",
		TimeSeriesData:              "select/time_series_data.sql",
	},
	Update: UpdateQueries{
		LastRefreshedDate: "update/last_refreshed_date.sql",
		AnalysisRun:       "update/analysis_run.sql",
	},
}

func Get(path string) string {
	content, err := Files.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("error reading query file: %w", err))
	}

	return string(content)
}
