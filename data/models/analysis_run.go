package models

import (
	"time"

	"github.com/guregu/null/v6"
)

type AnalysisRunHistory struct {
	Id           int32       `db:"id" json:"id"`
	Symbols      []string    `db:"symbols" json:"symbols"`
	Benchmark    null.String `db:"benchmark" json:"benchmark"`
	StartDate    time.Time   `db:"start_date" json:"startDate"`
	EndDate      time.Time   `db:"end_date" json:"endDate"`
	Status       string      `db:"status" json:"status"`
	ErrorMessage null.String `db:"error_message" json:"errorMessage"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

const (
	AnalysisRunStatusRunning = "running"
	AnalysisRunStatusSuccess = "success"
	AnalysisRunStatusFailure = "failure"
)
