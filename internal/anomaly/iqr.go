package anomaly

import (
	"context"

	"github.com/cleared-dev/foresight/internal/model"
)

// IQR applies Tukey fences to amounts within each kind.
type IQR struct{}

func (IQR) Name() string { return NameIQR }

func (IQR) Score(_ context.Context, entries []model.Entry, cfg Config) (map[string]bool, error) {
	if len(entries) < 4 {
		return nil, unavailable(NameIQR, "need at least 4 entries, got %d", len(entries))
	}

	kinds := make(map[model.Kind][]int)
	for i, e := range entries {
		kinds[e.Kind] = append(kinds[e.Kind], i)
	}

	flagged := make([]bool, len(entries))
	for _, idx := range kinds {
		vals := amounts(entries, idx)
		q1 := quantile(vals, 0.25)
		q3 := quantile(vals, 0.75)
		spread := q3 - q1
		lo := q1 - cfg.IQRMultiplier*spread
		hi := q3 + cfg.IQRMultiplier*spread
		for j, i := range idx {
			if vals[j] < lo || vals[j] > hi {
				flagged[i] = true
			}
		}
	}
	return ids(entries, flagged), nil
}
