package anomaly

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/cleared-dev/foresight/internal/model"
)

const (
	maxSubsample    = 256
	minForestSample = 8
	eulerGamma      = 0.5772156649015329
	forestStream    = 0x6973_6f66 // "isof"
)

// IsolationForest scores entries by how quickly random axis-aligned splits
// isolate them. Entries scoring above 0.5 and strictly above the
// (1 - Contamination) quantile of all scores are flagged.
type IsolationForest struct{}

func (IsolationForest) Name() string { return NameIsolationForest }

func (IsolationForest) Score(ctx context.Context, entries []model.Entry, cfg Config) (map[string]bool, error) {
	n := len(entries)
	if n < minForestSample {
		return nil, unavailable(NameIsolationForest, "need at least %d entries, got %d", minForestSample, n)
	}
	scores, err := isolationScores(ctx, features(entries), cfg)
	if err != nil {
		return nil, err
	}

	cut := quantile(scores, 1-cfg.Contamination)
	flagged := make([]bool, n)
	for i, s := range scores {
		flagged[i] = s > 0.5 && s > cut
	}
	return ids(entries, flagged), nil
}

// isolationScores averages path lengths over cfg.Trees seeded trees and maps
// them to anomaly scores in (0, 1].
func isolationScores(ctx context.Context, data [][]float64, cfg Config) ([]float64, error) {
	n := len(data)
	trees := cfg.Trees
	if trees <= 0 {
		trees = 100
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, forestStream))
	psi := min(maxSubsample, n)
	maxDepth := int(math.Ceil(math.Log2(float64(psi))))

	pathSums := make([]float64, n)
	for t := 0; t < trees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sample := rng.Perm(n)[:psi]
		root := buildIsoTree(rng, data, sample, 0, maxDepth)
		for i, x := range data {
			pathSums[i] += root.pathLength(x, 0)
		}
	}

	norm := averagePath(psi)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = math.Pow(2, -(pathSums[i]/float64(trees))/norm)
	}
	return scores, nil
}

type isoNode struct {
	left, right *isoNode
	feature     int
	split       float64
	size        int
}

func buildIsoTree(rng *rand.Rand, data [][]float64, idx []int, depth, maxDepth int) *isoNode {
	if depth >= maxDepth || len(idx) <= 1 {
		return &isoNode{size: len(idx)}
	}

	// Only features with spread can split.
	var candidates []int
	lows := make([]float64, len(data[0]))
	highs := make([]float64, len(data[0]))
	for f := range lows {
		lo, hi := data[idx[0]][f], data[idx[0]][f]
		for _, i := range idx[1:] {
			lo = math.Min(lo, data[i][f])
			hi = math.Max(hi, data[i][f])
		}
		lows[f], highs[f] = lo, hi
		if hi > lo {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return &isoNode{size: len(idx)}
	}

	f := candidates[rng.IntN(len(candidates))]
	split := lows[f] + rng.Float64()*(highs[f]-lows[f])

	var left, right []int
	for _, i := range idx {
		if data[i][f] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &isoNode{
		feature: f,
		split:   split,
		left:    buildIsoTree(rng, data, left, depth+1, maxDepth),
		right:   buildIsoTree(rng, data, right, depth+1, maxDepth),
	}
}

func (n *isoNode) pathLength(x []float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + averagePath(n.size)
	}
	if x[n.feature] < n.split {
		return n.left.pathLength(x, depth+1)
	}
	return n.right.pathLength(x, depth+1)
}

// averagePath is the expected path length of an unsuccessful BST search over n points.
func averagePath(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}
