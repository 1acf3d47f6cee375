package alerts

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/foresight/internal/model"
)

// AnomalyAlert is the message published for each flagged entry.
type AnomalyAlert struct {
	RunID          string          `json:"run_id"`
	EntryID        string          `json:"entry_id"`
	Date           string          `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Kind           model.Kind      `json:"kind"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	Confidence     float64         `json:"confidence"`
	Votes          int             `json:"votes"`
	TotalDetectors int             `json:"total_detectors"`
	FlaggedBy      []string        `json:"flagged_by"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NewAnomalyAlert describes entry e and the ensemble's verdict on it.
func NewAnomalyAlert(runID string, e model.Entry, v model.AnomalyVerdict, now time.Time) AnomalyAlert {
	return AnomalyAlert{
		RunID:          runID,
		EntryID:        e.ID,
		Date:           e.Date.Format("2006-01-02"),
		Amount:         e.Amount,
		Kind:           e.Kind,
		Category:       e.Category,
		Description:    e.Description,
		Confidence:     v.Confidence,
		Votes:          v.Votes,
		TotalDetectors: v.TotalDetectors,
		FlaggedBy:      v.FlaggedBy,
		Timestamp:      now.UTC(),
	}
}

// ToJSON converts the alert to JSON bytes
func (a AnomalyAlert) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}

// AnomalyAlertFromJSON decodes an alert.
func AnomalyAlertFromJSON(data []byte) (AnomalyAlert, error) {
	var a AnomalyAlert
	if err := json.Unmarshal(data, &a); err != nil {
		return AnomalyAlert{}, err
	}
	return a, nil
}
