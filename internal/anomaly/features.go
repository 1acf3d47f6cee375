package anomaly

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cleared-dev/foresight/internal/model"
)

// features maps entries into a two-dimensional space: log-amount standardized
// within the entry's kind, and the relative frequency of the entry's
// (kind, category) group standardized across all entries.
func features(entries []model.Entry) [][]float64 {
	n := len(entries)
	logAmount := make([]float64, n)
	groupCount := make(map[string]int)
	byKind := make(map[model.Kind][]int)
	for i, e := range entries {
		logAmount[i] = math.Log1p(e.Amount.Abs().InexactFloat64())
		groupCount[e.GroupKey()]++
		byKind[e.Kind] = append(byKind[e.Kind], i)
	}

	amount := make([]float64, n)
	for _, idx := range byKind {
		vals := make([]float64, len(idx))
		for j, i := range idx {
			vals[j] = logAmount[i]
		}
		std := standardize(vals)
		for j, i := range idx {
			amount[i] = std[j]
		}
	}

	freq := make([]float64, n)
	for i, e := range entries {
		freq[i] = float64(groupCount[e.GroupKey()]) / float64(n)
	}
	freq = standardize(freq)

	out := make([][]float64, n)
	for i := range entries {
		out[i] = []float64{amount[i], freq[i]}
	}
	return out
}

// standardize rescales to zero mean and unit population variance.
// A constant column maps to zeros.
func standardize(vals []float64) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	m, sd := stat.PopMeanStdDev(vals, nil)
	if sd == 0 {
		return out
	}
	for i, v := range vals {
		out[i] = stat.StdScore(v, m, sd)
	}
	return out
}

// quantile interpolates linearly between closest ranks, the numpy default.
// stat.Quantile only offers the empirical and LinInterp (R type 4)
// estimators, which put Tukey fences and contamination cut-offs elsewhere.
// vals need not be sorted.
func quantile(vals []float64, q float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

func ids(entries []model.Entry, flagged []bool) map[string]bool {
	out := make(map[string]bool)
	for i, f := range flagged {
		if f {
			out[entries[i].ID] = true
		}
	}
	return out
}
