package anomaly

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"github.com/cleared-dev/foresight/internal/model"
)

// ZScore flags amounts more than ZThreshold sample standard deviations from
// their group mean. Groups are (kind, category); groups smaller than
// MinCategorySize are scored against every entry.
type ZScore struct{}

func (ZScore) Name() string { return NameZScore }

func (ZScore) Score(_ context.Context, entries []model.Entry, cfg Config) (map[string]bool, error) {
	if len(entries) < 2 {
		return nil, unavailable(NameZScore, "need at least 2 entries, got %d", len(entries))
	}

	all := make([]int, len(entries))
	groups := make(map[string][]int)
	for i, e := range entries {
		all[i] = i
		groups[e.GroupKey()] = append(groups[e.GroupKey()], i)
	}

	flagged := make([]bool, len(entries))
	for i, e := range entries {
		pool := groups[e.GroupKey()]
		if len(pool) < cfg.MinCategorySize {
			pool = all
		}
		if len(pool) < 2 {
			continue
		}
		m, sd := stat.MeanStdDev(amounts(entries, pool), nil)
		if sd == 0 {
			continue
		}
		z := stat.StdScore(e.Amount.InexactFloat64(), m, sd)
		if z > cfg.ZThreshold || z < -cfg.ZThreshold {
			flagged[i] = true
		}
	}
	return ids(entries, flagged), nil
}

func amounts(entries []model.Entry, idx []int) []float64 {
	out := make([]float64, len(idx))
	for j, i := range idx {
		out[j] = entries[i].Amount.InexactFloat64()
	}
	return out
}
