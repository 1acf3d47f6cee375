package forecast

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/foresight/internal/model"
)

// Trend is a least-squares line y = Intercept + Slope*x fitted over the
// sequential indices 0..N-1.
type Trend struct {
	Slope     decimal.Decimal
	Intercept decimal.Decimal
	N         int
}

// FitTrend fits a degree-1 least-squares line to values against their index.
// Calendar gaps are not modelled; each value is one step. The arithmetic is
// exact decimal, so a perfectly linear series fits with zero residuals.
func FitTrend(values []decimal.Decimal) (Trend, error) {
	n := len(values)
	if n < 2 {
		return Trend{}, fmt.Errorf("not enough points: need 2, got %d: %w", n, model.ErrInsufficientData)
	}

	nn := int64(n)
	sumX := nn * (nn - 1) / 2
	sumX2 := (nn - 1) * nn * (2*nn - 1) / 6
	denom := nn*sumX2 - sumX*sumX

	sumY := decimal.Zero
	sumXY := decimal.Zero
	for i, y := range values {
		sumY = sumY.Add(y)
		sumXY = sumXY.Add(y.Mul(decimal.NewFromInt(int64(i))))
	}

	num := sumXY.Mul(decimal.NewFromInt(nn)).Sub(sumY.Mul(decimal.NewFromInt(sumX)))
	slope := num.Div(decimal.NewFromInt(denom))
	intercept := sumY.Sub(slope.Mul(decimal.NewFromInt(sumX))).Div(decimal.NewFromInt(nn))

	return Trend{Slope: slope, Intercept: intercept, N: n}, nil
}

// At evaluates the line at index x.
func (t Trend) At(x int) decimal.Decimal {
	return t.Intercept.Add(t.Slope.Mul(decimal.NewFromInt(int64(x))))
}

// Next evaluates the line one step past the last fitted index.
func (t Trend) Next() decimal.Decimal {
	return t.At(t.N)
}

// Residuals returns observed minus fitted for each value.
func (t Trend) Residuals(values []decimal.Decimal) []decimal.Decimal {
	res := make([]decimal.Decimal, len(values))
	for i, y := range values {
		res[i] = y.Sub(t.At(i))
	}
	return res
}

// SampleStdDev is the n-1 standard deviation of values. Fewer than two
// values, or values that are all identical, give exactly zero.
func SampleStdDev(values []decimal.Decimal) decimal.Decimal {
	n := len(values)
	if n < 2 {
		return decimal.Zero
	}
	mean := decimal.Zero
	for _, v := range values {
		mean = mean.Add(v)
	}
	mean = mean.Div(decimal.NewFromInt(int64(n)))

	ss := decimal.Zero
	for _, v := range values {
		d := v.Sub(mean)
		ss = ss.Add(d.Mul(d))
	}
	if ss.IsZero() {
		return decimal.Zero
	}
	variance := ss.Div(decimal.NewFromInt(int64(n - 1)))
	return decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))
}
