// Package goal projects when a savings goal will be reached on the current profit trend.
package goal

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/foresight/internal/forecast"
	"github.com/cleared-dev/foresight/internal/model"
)

const (
	// DefaultTrendWindow is how many recent months feed the average.
	DefaultTrendWindow = 3
	daysPerMonth       = 30
)

// Config tunes the projector.
type Config struct {
	TrendWindow int `yaml:"trend_window"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{TrendWindow: DefaultTrendWindow}
}

func (c Config) window() int {
	if c.TrendWindow <= 0 {
		return DefaultTrendWindow
	}
	return c.TrendWindow
}

// Project estimates progress and completion for g given chronological monthly
// summaries and the current time. Savings count from g.CreationPeriod onward;
// the pace is the mean net of the last TrendWindow summaries supplied.
//
// Without any summaries the projection is model.StatusInsufficientData. A
// non-positive pace is model.StatusUndefinedHorizon. Neither carries a date
// or probability.
func Project(g model.Goal, summaries []model.PeriodSummary, now time.Time, cfg Config) (model.GoalProjection, error) {
	if !g.TargetAmount.IsPositive() {
		return model.GoalProjection{}, fmt.Errorf("goal %q: target %s must be positive: %w",
			g.ID, g.TargetAmount, model.ErrMalformedInput)
	}
	if err := model.CheckOrdered(summaries); err != nil {
		return model.GoalProjection{}, fmt.Errorf("goal %q: %w", g.ID, err)
	}

	saved := decimal.Zero
	for _, s := range summaries {
		if g.CreationPeriod.IsZero() || !s.Period.Before(g.CreationPeriod) {
			saved = saved.Add(s.Net)
		}
	}

	// left stays unrounded: the on-track test compares it against needed.
	left := monthsBetween(now, g.TargetDate)
	p := model.GoalProjection{
		GoalID:          g.ID,
		CurrentSaved:    saved,
		ProgressPercent: round2(saved.Div(g.TargetAmount).InexactFloat64() * 100),
		MonthsLeft:      round2(left),
	}

	recent := summaries[max(0, len(summaries)-cfg.window()):]
	p.PeriodsUsed = len(recent)
	if len(recent) == 0 {
		p.Status = model.StatusInsufficientData
		return p, nil
	}

	nets := model.Nets(recent)
	avg := decimal.Sum(nets[0], nets[1:]...).Div(decimal.NewFromInt(int64(len(nets))))
	avgRounded := avg.Round(2)
	p.AverageNet = &avgRounded
	if trend, err := forecast.FitTrend(nets); err == nil {
		slope := trend.Slope.Round(2)
		p.TrendSlope = &slope
	}

	if !avg.IsPositive() {
		p.Status = model.StatusUndefinedHorizon
		return p, nil
	}

	needed := g.TargetAmount.Sub(saved).Div(avg).InexactFloat64()
	projected := now
	if needed > 0 {
		projected = now.AddDate(0, 0, int(needed*daysPerMonth))
	}
	probability := successProbability(needed, left)

	neededRounded := round2(needed)
	p.Status = model.StatusOK
	p.MonthsNeeded = &neededRounded
	p.ProjectedDate = &projected
	p.SuccessProbability = &probability
	return p, nil
}

// successProbability is a heuristic score in [0, 100]. Being exactly on
// schedule scores 70 while falling just short scores about 50.
func successProbability(needed, left float64) float64 {
	var score float64
	if needed <= left {
		score = math.Min(100, 70+10*(left-needed))
	} else {
		score = math.Max(0, 50-10*(needed-left))
	}
	return round2(math.Max(0, math.Min(100, score)))
}

// Status is the lifecycle state g should move to given its latest projection.
// Goals already achieved or failed keep their status.
func Status(g model.Goal, p model.GoalProjection, now time.Time) model.GoalStatus {
	if g.Status == model.GoalAchieved || g.Status == model.GoalFailed {
		return g.Status
	}
	if p.CurrentSaved.GreaterThanOrEqual(g.TargetAmount) {
		return model.GoalAchieved
	}
	if !g.TargetDate.IsZero() && now.After(g.TargetDate) {
		return model.GoalFailed
	}
	return model.GoalActive
}

// monthsBetween counts whole days from now to deadline in 30-day months.
func monthsBetween(now, deadline time.Time) float64 {
	days := math.Floor(deadline.Sub(now).Hours() / 24)
	return days / daysPerMonth
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
