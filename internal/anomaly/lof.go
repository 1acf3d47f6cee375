package anomaly

import (
	"context"
	"sort"

	"github.com/cleared-dev/foresight/internal/model"
)

// lrdEpsilon keeps local reachability density finite when neighbours coincide.
const lrdEpsilon = 1e-10

// LOF flags entries whose local outlier factor exceeds LOFThreshold.
type LOF struct{}

func (LOF) Name() string { return NameLOF }

func (LOF) Score(_ context.Context, entries []model.Entry, cfg Config) (map[string]bool, error) {
	n := len(entries)
	if n < 3 {
		return nil, unavailable(NameLOF, "need at least 3 entries, got %d", n)
	}
	k := min(cfg.LOFNeighbors, n-1)
	if k < 1 {
		k = 1
	}

	data := features(entries)
	knn := make([][]int, n)
	kdist := make([]float64, n)
	for i := range data {
		others := make([]int, 0, n-1)
		for j := range data {
			if j != i {
				others = append(others, j)
			}
		}
		sort.SliceStable(others, func(a, b int) bool {
			return distance(data[i], data[others[a]]) < distance(data[i], data[others[b]])
		})
		knn[i] = others[:k]
		kdist[i] = distance(data[i], data[others[k-1]])
	}

	lrd := make([]float64, n)
	for i := range data {
		var reach float64
		for _, j := range knn[i] {
			reach += max(kdist[j], distance(data[i], data[j]))
		}
		lrd[i] = 1 / (reach/float64(k) + lrdEpsilon)
	}

	flagged := make([]bool, n)
	for i := range data {
		var sum float64
		for _, j := range knn[i] {
			sum += lrd[j]
		}
		factor := sum / float64(k) / lrd[i]
		flagged[i] = factor > cfg.LOFThreshold
	}
	return ids(entries, flagged), nil
}
