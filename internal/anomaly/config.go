package anomaly

// Built-in detector names.
const (
	NameZScore          = "zscore"
	NameIsolationForest = "isolation_forest"
	NameBoundary        = "boundary"
	NameDBSCAN          = "dbscan"
	NameIQR             = "iqr"
	NameLOF             = "lof"
)

// Config carries detector thresholds.
type Config struct {
	ZThreshold       float64  `yaml:"z_threshold" env:"Z_THRESHOLD"`
	MinCategorySize  int      `yaml:"min_category_size"`
	Contamination    float64  `yaml:"contamination" env:"CONTAMINATION"`
	Seed             uint64   `yaml:"seed" env:"SEED"`
	Trees            int      `yaml:"trees"`
	DBSCANEps        float64  `yaml:"dbscan_eps"`
	DBSCANMinSamples int      `yaml:"dbscan_min_samples"`
	IQRMultiplier    float64  `yaml:"iqr_multiplier"`
	LOFNeighbors     int      `yaml:"lof_neighbors"`
	LOFThreshold     float64  `yaml:"lof_threshold"`
	MinEntries       int      `yaml:"min_entries"`
	Detectors        []string `yaml:"detectors" env:"DETECTORS"`
}

// DefaultConfig returns the standard ensemble: four detectors, seed 42.
func DefaultConfig() Config {
	return Config{
		ZThreshold:       2.0,
		MinCategorySize:  5,
		Contamination:    0.1,
		Seed:             42,
		Trees:            100,
		DBSCANEps:        0.5,
		DBSCANMinSamples: 5,
		IQRMultiplier:    1.5,
		LOFNeighbors:     10,
		LOFThreshold:     1.5,
		MinEntries:       10,
		Detectors:        []string{NameBoundary, NameDBSCAN, NameIsolationForest, NameZScore},
	}
}
