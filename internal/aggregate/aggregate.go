// Package aggregate rolls ledger entries up into monthly summaries.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/foresight/internal/model"
)

type totals struct {
	inflow  decimal.Decimal
	outflow decimal.Decimal
}

// Summarize returns one summary per month present in entries, oldest first.
// The result depends only on the set of entries, never on their order.
func Summarize(entries []model.Entry) ([]model.PeriodSummary, error) {
	if err := checkEntries(entries); err != nil {
		return nil, err
	}

	byPeriod := make(map[model.Period]*totals)
	for _, e := range entries {
		p := e.Period()
		t, ok := byPeriod[p]
		if !ok {
			t = &totals{inflow: decimal.Zero, outflow: decimal.Zero}
			byPeriod[p] = t
		}
		if e.Kind == model.KindInflow {
			t.inflow = t.inflow.Add(e.Amount)
		} else {
			t.outflow = t.outflow.Add(e.Amount)
		}
	}

	summaries := make([]model.PeriodSummary, 0, len(byPeriod))
	for p, t := range byPeriod {
		summaries = append(summaries, model.NewPeriodSummary(p, t.inflow, t.outflow))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Period.Before(summaries[j].Period)
	})
	return summaries, nil
}

// SummarizePeriod recomputes a single month from scratch. Every entry must
// belong to p; an empty slice yields a zero summary.
func SummarizePeriod(p model.Period, entries []model.Entry) (model.PeriodSummary, error) {
	if err := checkEntries(entries); err != nil {
		return model.PeriodSummary{}, err
	}

	inflow, outflow := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.Period() != p {
			return model.PeriodSummary{}, fmt.Errorf("entry %q dated %s is outside %s: %w",
				e.ID, e.Date.Format("2006-01-02"), p, model.ErrMalformedInput)
		}
		if e.Kind == model.KindInflow {
			inflow = inflow.Add(e.Amount)
		} else {
			outflow = outflow.Add(e.Amount)
		}
	}
	return model.NewPeriodSummary(p, inflow, outflow), nil
}

// CategoryTotal is the summed amount of one category within a month.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// TopCategories returns the largest categories of kind within p, biggest
// first. Ties break on category name. limit <= 0 returns all of them.
func TopCategories(entries []model.Entry, p model.Period, kind model.Kind, limit int) []CategoryTotal {
	byCat := make(map[string]*CategoryTotal)
	for _, e := range entries {
		if e.Kind != kind || e.Period() != p {
			continue
		}
		name := strings.TrimSpace(e.Category)
		if name == "" {
			name = "uncategorized"
		}
		ct, ok := byCat[name]
		if !ok {
			ct = &CategoryTotal{Category: name, Total: decimal.Zero}
			byCat[name] = ct
		}
		ct.Total = ct.Total.Add(e.Amount)
		ct.Count++
	}

	result := make([]CategoryTotal, 0, len(byCat))
	for _, ct := range byCat {
		result = append(result, *ct)
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Total.Cmp(result[j].Total); c != 0 {
			return c > 0
		}
		return result[i].Category < result[j].Category
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func checkEntries(entries []model.Entry) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
		if e.ID == "" {
			continue
		}
		if seen[e.ID] {
			return fmt.Errorf("entry %q appears twice: %w", e.ID, model.ErrMalformedInput)
		}
		seen[e.ID] = true
	}
	return nil
}
