package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResultStatus tells a caller whether a numeric result is present.
type ResultStatus string

const (
	StatusOK               ResultStatus = "ok"
	StatusInsufficientData ResultStatus = "insufficient_data"
	StatusUndefinedHorizon ResultStatus = "undefined_horizon"
)

// Err maps a non-ok status onto its sentinel error, or nil.
func (s ResultStatus) Err() error {
	switch s {
	case StatusInsufficientData:
		return ErrInsufficientData
	case StatusUndefinedHorizon:
		return ErrUndefinedHorizon
	}
	return nil
}

// ForecastResult is a next-period net prediction. The numeric fields are nil
// unless Status is StatusOK.
type ForecastResult struct {
	Status       ResultStatus     `json:"status"`
	Period       *Period          `json:"period,omitempty"` // month being predicted, when known
	PredictedNet *decimal.Decimal `json:"predicted_net,omitempty"`
	Lower        *decimal.Decimal `json:"lower_bound,omitempty"`
	Upper        *decimal.Decimal `json:"upper_bound,omitempty"`
	Sigma        *decimal.Decimal `json:"sigma,omitempty"`
	PeriodsUsed  int              `json:"periods_used"`
	Method       string           `json:"method_name,omitempty"`
}

// AnomalyVerdict is the ensemble's vote on one entry.
type AnomalyVerdict struct {
	EntryID        string   `json:"entry_id"`
	IsAnomaly      bool     `json:"is_anomaly"`
	Confidence     float64  `json:"confidence"`
	Votes          int      `json:"votes"`
	TotalDetectors int      `json:"total_detectors"`
	FlaggedBy      []string `json:"flagged_by,omitempty"`
}

// GoalProjection is the outlook for a goal on the current trend. Projection
// fields are nil unless Status is StatusOK.
type GoalProjection struct {
	GoalID             string           `json:"goal_id,omitempty"`
	Status             ResultStatus     `json:"status"`
	CurrentSaved       decimal.Decimal  `json:"current_saved"`
	ProgressPercent    float64          `json:"progress_percent"`
	PeriodsUsed        int              `json:"periods_used"`
	AverageNet         *decimal.Decimal `json:"average_net,omitempty"`
	TrendSlope         *decimal.Decimal `json:"trend_slope,omitempty"`
	MonthsNeeded       *float64         `json:"months_needed,omitempty"`
	MonthsLeft         float64          `json:"months_left"`
	ProjectedDate      *time.Time       `json:"projected_date,omitempty"`
	SuccessProbability *float64         `json:"success_probability,omitempty"`
}

// Err returns ErrInsufficientData or ErrUndefinedHorizon for non-ok
// projections.
func (p GoalProjection) Err() error {
	return p.Status.Err()
}
