// Package forecast predicts next-month net profit from monthly summaries.
package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/foresight/internal/model"
)

// Method identifies the model behind a ForecastResult.
const Method = "linear_regression_profit_trend"

const (
	// MinPeriods is the shortest history a trend is extrapolated from.
	MinPeriods = 3
	// DefaultIntervalZ gives an 80% band under normal residuals.
	DefaultIntervalZ = 1.28
	resultPlaces     = 2
)

// Config tunes the engine. The zero value uses the defaults.
type Config struct {
	MinPeriods int     `yaml:"min_periods" env:"MIN_PERIODS"`
	IntervalZ  float64 `yaml:"interval_z" env:"INTERVAL_Z"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{MinPeriods: MinPeriods, IntervalZ: DefaultIntervalZ}
}

func (c Config) minPeriods() int {
	if c.MinPeriods < MinPeriods {
		return MinPeriods
	}
	return c.MinPeriods
}

func (c Config) intervalZ() float64 {
	if c.IntervalZ <= 0 {
		return DefaultIntervalZ
	}
	return c.IntervalZ
}

// Forecast predicts the net of the month after the last summary. Summaries
// must be strictly chronological; unsorted or duplicate periods are rejected
// with model.ErrMalformedInput.
func Forecast(summaries []model.PeriodSummary, cfg Config) (model.ForecastResult, error) {
	if err := model.CheckOrdered(summaries); err != nil {
		return model.ForecastResult{}, err
	}
	result := ForecastNets(model.Nets(summaries), cfg)
	if result.Status == model.StatusOK {
		next := summaries[len(summaries)-1].Period.Next()
		result.Period = &next
	}
	return result, nil
}

// ForecastNets predicts the value following an ordered series of nets.
// Short series report model.StatusInsufficientData and carry no numbers.
func ForecastNets(nets []decimal.Decimal, cfg Config) model.ForecastResult {
	if len(nets) < cfg.minPeriods() {
		return model.ForecastResult{
			Status:      model.StatusInsufficientData,
			PeriodsUsed: len(nets),
		}
	}

	trend, err := FitTrend(nets)
	if err != nil {
		// Unreachable: minPeriods is at least 3.
		return model.ForecastResult{Status: model.StatusInsufficientData, PeriodsUsed: len(nets)}
	}

	prediction := trend.Next()
	sigma := SampleStdDev(trend.Residuals(nets))
	band := sigma.Mul(decimal.NewFromFloat(cfg.intervalZ()))

	predicted := prediction.Round(resultPlaces)
	lower := prediction.Sub(band).Round(resultPlaces)
	upper := prediction.Add(band).Round(resultPlaces)
	sigma = sigma.Round(resultPlaces)

	return model.ForecastResult{
		Status:       model.StatusOK,
		PredictedNet: &predicted,
		Lower:        &lower,
		Upper:        &upper,
		Sigma:        &sigma,
		PeriodsUsed:  len(nets),
		Method:       Method,
	}
}
