package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PeriodSummary rolls up one month of entries. Net is always
// TotalInflow - TotalOutflow; build summaries with NewPeriodSummary.
type PeriodSummary struct {
	Period       Period          `json:"period"`
	TotalInflow  decimal.Decimal `json:"total_inflow"`
	TotalOutflow decimal.Decimal `json:"total_outflow"`
	Net          decimal.Decimal `json:"net"`
}

// NewPeriodSummary derives Net from the two totals.
func NewPeriodSummary(p Period, inflow, outflow decimal.Decimal) PeriodSummary {
	return PeriodSummary{
		Period:       p,
		TotalInflow:  inflow,
		TotalOutflow: outflow,
		Net:          inflow.Sub(outflow),
	}
}

// CheckOrdered verifies summaries are strictly chronological with no
// duplicate periods.
func CheckOrdered(summaries []PeriodSummary) error {
	for i := 1; i < len(summaries); i++ {
		prev, cur := summaries[i-1].Period, summaries[i].Period
		if prev == cur {
			return fmt.Errorf("duplicate period %s: %w", cur, ErrMalformedInput)
		}
		if !prev.Before(cur) {
			return fmt.Errorf("period %s follows %s: %w", cur, prev, ErrMalformedInput)
		}
	}
	return nil
}

// Nets returns the Net column of summaries.
func Nets(summaries []PeriodSummary) []decimal.Decimal {
	nets := make([]decimal.Decimal, len(summaries))
	for i, s := range summaries {
		nets[i] = s.Net
	}
	return nets
}
