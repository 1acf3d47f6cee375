package anomaly

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/foresight/internal/model"
)

func inflow(id, amount, category string) model.Entry {
	e := entry(id, amount, category)
	e.Kind = model.KindInflow
	return e
}

// series returns one supplies entry per amount, with ID prefix+amount.
func series(prefix string, amounts ...int) []model.Entry {
	out := make([]model.Entry, len(amounts))
	for i, a := range amounts {
		out[i] = entry(fmt.Sprintf("%s%d", prefix, a), fmt.Sprint(a), "supplies")
	}
	return out
}

func flaggedSet(ids ...string) map[string]bool {
	out := make(map[string]bool)
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func TestZScore_SmallCategoriesUseEveryEntry(t *testing.T) {
	var entries []model.Entry
	for i := 0; i < 20; i++ {
		entries = append(entries, entry(fmt.Sprintf("o%02d", i), "50", fmt.Sprintf("cat%d", i%5)))
	}
	// Two sales make a group of two: within their own kind they look
	// ordinary, against the whole ledger they sit about three sigma out.
	entries = append(entries, inflow("sales-1", "5000", "sales"), inflow("sales-2", "5100", "sales"))

	got, err := ZScore{}.Score(context.Background(), entries, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, flaggedSet("sales-1", "sales-2"), got)
}

func TestZScore_LargeCategoriesUseTheirGroup(t *testing.T) {
	var entries []model.Entry
	for i := 0; i < 9; i++ {
		entries = append(entries, entry(fmt.Sprintf("s%d", i), "100", "supplies"))
	}
	entries = append(entries, entry("big", "200", "supplies"))
	for i := 0; i < 5; i++ {
		entries = append(entries, entry(fmt.Sprintf("r%d", i), "2000", "rent"))
	}

	got, err := ZScore{}.Score(context.Background(), entries, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, flaggedSet("big"), got)
}

func TestIQR_FencesPerKind(t *testing.T) {
	entries := series("o", 10, 11, 12, 13, 14, 15, 16, 17, 100)
	for _, a := range []int{1000, 1010, 1020, 1030} {
		entries = append(entries, inflow(fmt.Sprintf("i%d", a), fmt.Sprint(a), "sales"))
	}

	tests := []struct {
		name       string
		multiplier float64
		want       map[string]bool
	}{
		// outflows: q1 12, q3 16, fences 6 and 22. inflows: q1 1007.5, q3 1022.5.
		{"tukey", 1.5, flaggedSet("o100")},
		{"tight", 0.1, flaggedSet("o10", "o11", "o17", "o100", "i1000", "i1030")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.IQRMultiplier = tt.multiplier
			got, err := IQR{}.Score(context.Background(), entries, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDBSCAN_BorderPointsAreNotNoise(t *testing.T) {
	// Standardized, 100..104 sit about 0.02 apart, 115 is 0.21 from 104
	// with only three neighbours within 0.25, and 400 is far from all.
	entries := series("d", 100, 101, 102, 103, 104, 115, 400)

	tests := []struct {
		name string
		eps  float64
		want map[string]bool
	}{
		{"border reached by a core point", 0.25, flaggedSet("d400")},
		{"border out of reach", 0.2, flaggedSet("d115", "d400")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DBSCANEps = tt.eps
			cfg.DBSCANMinSamples = 5
			got, err := DBSCAN{}.Score(context.Background(), entries, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLOF_Threshold(t *testing.T) {
	var amounts []int
	for a := 100; a < 120; a++ {
		amounts = append(amounts, a)
	}
	entries := append(series("n", amounts...), entry("far", "1000", "supplies"))

	// Factors: far about 38.9, n100 1.27, n119 1.22, the rest below 1.2.
	tests := []struct {
		threshold float64
		want      map[string]bool
	}{
		{1.5, flaggedSet("far")},
		{1.25, flaggedSet("far", "n100")},
		{50, flaggedSet()},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.threshold), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LOFThreshold = tt.threshold
			got, err := LOF{}.Score(context.Background(), entries, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoundary_RadiusAtContaminationQuantile(t *testing.T) {
	even := series("b", 100, 101, 102, 103, 104, 105, 106, 107, 108, 109)
	skewed := series("b", 100, 101, 102, 103, 104, 105, 106, 107, 108, 150)

	tests := []struct {
		name          string
		entries       []model.Entry
		contamination float64
		want          map[string]bool
	}{
		{"farthest tenth", even, 0.1, flaggedSet("b100")},
		{"farthest three tenths", even, 0.3, flaggedSet("b100", "b101", "b109")},
		{"outlier", skewed, 0.1, flaggedSet("b150")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Contamination = tt.contamination
			got, err := Boundary{}.Score(context.Background(), tt.entries, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsolationForest_Seed(t *testing.T) {
	ctx := context.Background()
	data := features(spikeLedger())

	scoresFor := func(seed uint64) []float64 {
		cfg := DefaultConfig()
		cfg.Seed = seed
		scores, err := isolationScores(ctx, data, cfg)
		require.NoError(t, err)
		return scores
	}

	assert.Equal(t, scoresFor(7), scoresFor(7))
	assert.NotEqual(t, scoresFor(7), scoresFor(8))

	for _, seed := range []uint64{1, 7, 42} {
		cfg := DefaultConfig()
		cfg.Seed = seed
		got, err := IsolationForest{}.Score(ctx, spikeLedger(), cfg)
		require.NoError(t, err)
		assert.True(t, got["spike"], "seed %d", seed)
	}
}

func TestDetectors_TooFewEntries(t *testing.T) {
	one := series("x", 100)
	cfg := DefaultConfig()
	for _, d := range []Detector{ZScore{}, IQR{}, IsolationForest{}, Boundary{}, DBSCAN{}, LOF{}} {
		_, err := d.Score(context.Background(), one, cfg)
		assert.ErrorIs(t, err, model.ErrDetectorUnavailable, d.Name())
	}
}
