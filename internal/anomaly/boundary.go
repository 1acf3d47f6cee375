package anomaly

import (
	"context"

	"github.com/cleared-dev/foresight/internal/model"
)

const minBoundarySample = 5

// Boundary draws a sphere around the coordinate-wise median of the feature
// space enclosing the (1 - Contamination) share of entries and flags points
// strictly outside it.
type Boundary struct{}

func (Boundary) Name() string { return NameBoundary }

func (Boundary) Score(_ context.Context, entries []model.Entry, cfg Config) (map[string]bool, error) {
	n := len(entries)
	if n < minBoundarySample {
		return nil, unavailable(NameBoundary, "need at least %d entries, got %d", minBoundarySample, n)
	}

	data := features(entries)
	centre := make([]float64, len(data[0]))
	for f := range centre {
		col := make([]float64, n)
		for i, x := range data {
			col[i] = x[f]
		}
		centre[f] = quantile(col, 0.5)
	}

	dists := make([]float64, n)
	for i, x := range data {
		dists[i] = distance(x, centre)
	}
	radius := quantile(dists, 1-cfg.Contamination)

	flagged := make([]bool, n)
	for i, d := range dists {
		flagged[i] = d > radius
	}
	return ids(entries, flagged), nil
}
