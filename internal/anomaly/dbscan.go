package anomaly

import (
	"context"

	"github.com/cleared-dev/foresight/internal/model"
)

// DBSCAN clusters the feature space by density and flags noise points: those
// not within DBSCANEps of any core point. A point is core when at least
// DBSCANMinSamples points, itself included, lie within DBSCANEps.
type DBSCAN struct{}

func (DBSCAN) Name() string { return NameDBSCAN }

func (DBSCAN) Score(_ context.Context, entries []model.Entry, cfg Config) (map[string]bool, error) {
	n := len(entries)
	if n < cfg.DBSCANMinSamples {
		return nil, unavailable(NameDBSCAN, "need at least %d entries, got %d", cfg.DBSCANMinSamples, n)
	}

	data := features(entries)
	neighbours := make([][]int, n)
	for i := range data {
		for j := range data {
			if distance(data[i], data[j]) <= cfg.DBSCANEps {
				neighbours[i] = append(neighbours[i], j)
			}
		}
	}

	core := make([]bool, n)
	for i, nb := range neighbours {
		core[i] = len(nb) >= cfg.DBSCANMinSamples
	}

	// Noise is whatever no core point reaches; cluster labels themselves are not needed.
	noise := make([]bool, n)
	for i := range noise {
		noise[i] = true
	}
	for i := range data {
		if !core[i] {
			continue
		}
		for _, j := range neighbours[i] {
			noise[j] = false
		}
	}
	return ids(entries, noise), nil
}
