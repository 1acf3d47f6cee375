package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/foresight/internal/model"
)

func decs(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

func summaries(start model.Period, nets ...string) []model.PeriodSummary {
	out := make([]model.PeriodSummary, len(nets))
	p := start
	for i, n := range nets {
		out[i] = model.NewPeriodSummary(p, decimal.RequireFromString(n), decimal.Zero)
		p = p.Next()
	}
	return out
}

func TestForecastNets_InsufficientData(t *testing.T) {
	for _, nets := range [][]decimal.Decimal{nil, decs("100"), decs("100", "110")} {
		r := ForecastNets(nets, DefaultConfig())
		assert.Equal(t, model.StatusInsufficientData, r.Status)
		assert.Equal(t, len(nets), r.PeriodsUsed)
		assert.Nil(t, r.PredictedNet)
		assert.Nil(t, r.Lower)
		assert.Nil(t, r.Upper)
		assert.Empty(t, r.Method)
	}
}

func TestForecastNets_MinPeriodsNeverBelowThree(t *testing.T) {
	r := ForecastNets(decs("100", "110"), Config{MinPeriods: 1})
	assert.Equal(t, model.StatusInsufficientData, r.Status)

	r = ForecastNets(decs("100", "110", "120"), Config{MinPeriods: 4})
	assert.Equal(t, model.StatusInsufficientData, r.Status)
}

func TestForecastNets_Collinear(t *testing.T) {
	r := ForecastNets(decs("100", "200", "300"), DefaultConfig())
	require.Equal(t, model.StatusOK, r.Status)
	assert.Equal(t, "400.00", r.PredictedNet.StringFixed(2))
	assert.True(t, r.Lower.Equal(*r.PredictedNet))
	assert.True(t, r.Upper.Equal(*r.PredictedNet))
	assert.True(t, r.Sigma.IsZero())
	assert.Equal(t, 3, r.PeriodsUsed)
	assert.Equal(t, Method, r.Method)
}

func TestForecastNets_NoisySeries(t *testing.T) {
	// Fit of 100, 130, 110, 150: slope 13, intercept 103, next 155.
	r := ForecastNets(decs("100", "130", "110", "150"), DefaultConfig())
	require.Equal(t, model.StatusOK, r.Status)
	assert.Equal(t, "155.00", r.PredictedNet.StringFixed(2))

	// Residuals -3, 14, -19, 8 -> sample sd = sqrt(630/3).
	assert.InDelta(t, 14.49, r.Sigma.InexactFloat64(), 0.01)
	assert.InDelta(t, 155-1.28*14.4914, r.Lower.InexactFloat64(), 0.02)
	assert.InDelta(t, 155+1.28*14.4914, r.Upper.InexactFloat64(), 0.02)
	assert.True(t, r.Lower.LessThan(*r.PredictedNet))
	assert.True(t, r.Upper.GreaterThan(*r.PredictedNet))
}

func TestForecastNets_WidthGrowsWithResidualSpread(t *testing.T) {
	base := []float64{1000, 1100, 1200, 1300, 1400}
	noise := []float64{1, -1, 0, 1, -1}

	prevWidth := -1.0
	for _, k := range []float64{0, 1, 10, 50, 200} {
		nets := make([]decimal.Decimal, len(base))
		for i := range base {
			nets[i] = decimal.NewFromFloat(base[i] + k*noise[i])
		}
		r := ForecastNets(nets, DefaultConfig())
		require.Equal(t, model.StatusOK, r.Status)
		width := r.Upper.Sub(*r.Lower).InexactFloat64()
		assert.GreaterOrEqual(t, width, prevWidth, "k=%v", k)
		prevWidth = width
	}
}

func TestForecast_EndToEndQuarter(t *testing.T) {
	jan := model.NewPeriod(2025, time.January)
	r, err := Forecast(summaries(jan, "60000", "70000", "80000"), DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, model.StatusOK, r.Status)
	assert.Equal(t, "90000.00", r.PredictedNet.StringFixed(2))
	assert.True(t, r.Upper.Sub(*r.Lower).IsZero(), "perfectly linear series has a zero-width band")
	require.NotNil(t, r.Period)
	assert.Equal(t, "2025-04", r.Period.Key())
}

func TestForecast_GapsAreSequentialSteps(t *testing.T) {
	s := []model.PeriodSummary{
		model.NewPeriodSummary(model.NewPeriod(2024, time.November), decimal.NewFromInt(100), decimal.Zero),
		model.NewPeriodSummary(model.NewPeriod(2025, time.February), decimal.NewFromInt(200), decimal.Zero),
		model.NewPeriodSummary(model.NewPeriod(2025, time.March), decimal.NewFromInt(300), decimal.Zero),
	}
	r, err := Forecast(s, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "400.00", r.PredictedNet.StringFixed(2))
	assert.Equal(t, "2025-04", r.Period.Key())
}

func TestForecast_RejectsUnsortedAndDuplicates(t *testing.T) {
	jan := model.NewPeriod(2025, time.January)
	s := summaries(jan, "1", "2", "3")

	s[0], s[1] = s[1], s[0]
	_, err := Forecast(s, DefaultConfig())
	assert.True(t, errors.Is(err, model.ErrMalformedInput))

	dup := summaries(jan, "1", "2", "3")
	dup[2].Period = dup[1].Period
	_, err = Forecast(dup, DefaultConfig())
	assert.True(t, errors.Is(err, model.ErrMalformedInput))
}

func TestForecast_ShortHistoryIsNotAnError(t *testing.T) {
	r, err := Forecast(summaries(model.NewPeriod(2025, time.January), "500"), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, model.StatusInsufficientData, r.Status)
	assert.Nil(t, r.Period)
}
