package goal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/foresight/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func period(s string) model.Period {
	p, err := model.ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

func summaries(start string, nets ...string) []model.PeriodSummary {
	p := period(start)
	out := make([]model.PeriodSummary, len(nets))
	for i, n := range nets {
		net := dec(n)
		if net.IsNegative() {
			out[i] = model.NewPeriodSummary(p, decimal.Zero, net.Neg())
		} else {
			out[i] = model.NewPeriodSummary(p, net, decimal.Zero)
		}
		p = p.Next()
	}
	return out
}

var now = date("2025-01-01")

func newGoal(target string, deadline time.Time, created string) model.Goal {
	return model.Goal{
		ID:             "g1",
		Title:          "Emergency fund",
		TargetAmount:   dec(target),
		TargetDate:     deadline,
		CreationPeriod: period(created),
		Status:         model.GoalActive,
	}
}

func TestProject_OnTrack(t *testing.T) {
	g := newGoal("10000", now.AddDate(0, 0, 300), "2024-10")
	p, err := Project(g, summaries("2024-10", "1000", "1000", "1000"), now, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, model.StatusOK, p.Status)
	assert.True(t, p.CurrentSaved.Equal(dec("3000")))
	assert.Equal(t, 30.0, p.ProgressPercent)
	assert.True(t, p.AverageNet.Equal(dec("1000")))
	assert.True(t, p.TrendSlope.IsZero())
	require.NotNil(t, p.MonthsNeeded)
	assert.Equal(t, 7.0, *p.MonthsNeeded)
	assert.Equal(t, 10.0, p.MonthsLeft)
	assert.Equal(t, now.AddDate(0, 0, 210), *p.ProjectedDate)
	assert.Equal(t, 100.0, *p.SuccessProbability)
	assert.NoError(t, p.Err())
}

func TestProject_GoalAlreadyMet(t *testing.T) {
	g := newGoal("1000", now.AddDate(0, 0, 90), "2024-10")
	p, err := Project(g, summaries("2024-10", "500", "500", "500"), now, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, model.StatusOK, p.Status)
	assert.GreaterOrEqual(t, p.ProgressPercent, 100.0)
	require.NotNil(t, p.MonthsNeeded)
	assert.LessOrEqual(t, *p.MonthsNeeded, 0.0)
	assert.Equal(t, now, *p.ProjectedDate)
	assert.Equal(t, model.GoalAchieved, Status(g, p, now))
}

func TestProject_NonPositiveTrend(t *testing.T) {
	g := newGoal("5000", now.AddDate(0, 6, 0), "2024-10")

	for _, nets := range [][]string{{"0", "0", "0"}, {"100", "-300", "-100"}} {
		p, err := Project(g, summaries("2024-10", nets...), now, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, model.StatusUndefinedHorizon, p.Status, nets)
		assert.Nil(t, p.MonthsNeeded)
		assert.Nil(t, p.ProjectedDate)
		assert.Nil(t, p.SuccessProbability)
		assert.ErrorIs(t, p.Err(), model.ErrUndefinedHorizon)
	}
}

func TestProject_NoHistory(t *testing.T) {
	g := newGoal("5000", now.AddDate(0, 6, 0), "2025-01")
	p, err := Project(g, nil, now, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, model.StatusInsufficientData, p.Status)
	assert.Nil(t, p.AverageNet)
	assert.Nil(t, p.SuccessProbability)
	assert.True(t, p.CurrentSaved.IsZero())
	assert.ErrorIs(t, p.Err(), model.ErrInsufficientData)
}

func TestProject_ScheduleBoundary(t *testing.T) {
	// Savings start after the history, so the whole target is still needed.
	g := newGoal("1000", now.AddDate(0, 0, 300), "2025-01")

	exact, err := Project(g, summaries("2024-10", "100", "100", "100"), now, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 10.0, *exact.MonthsNeeded)
	assert.Equal(t, 70.0, *exact.SuccessProbability)

	short, err := Project(g, summaries("2024-10", "99.99", "99.99", "99.99"), now, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 49.99, *short.SuccessProbability, 0.001)
}

func TestProject_OnTrackByAFraction(t *testing.T) {
	// needed 1000/3001 = 0.33322 months, left 10/30 = 0.33333 months. Both
	// round to 0.33, but the goal is still on track.
	g := newGoal("1000", now.AddDate(0, 0, 10), "2025-01")
	p, err := Project(g, summaries("2024-10", "3001", "3001", "3001"), now, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.33, *p.MonthsNeeded)
	assert.Equal(t, 0.33, p.MonthsLeft)
	assert.GreaterOrEqual(t, *p.SuccessProbability, 70.0)
}

func TestProject_BehindSchedule(t *testing.T) {
	g := newGoal("3000", now.AddDate(0, 0, 60), "2025-01")
	p, err := Project(g, summaries("2024-10", "300", "300", "300"), now, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 10.0, *p.MonthsNeeded)
	assert.Equal(t, 0.0, *p.SuccessProbability)
}

func TestProject_UsesTrailingWindow(t *testing.T) {
	g := newGoal("10000", now.AddDate(1, 0, 0), "2024-07")
	p, err := Project(g, summaries("2024-07", "5000", "5000", "-100", "200", "500", "800"), now, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, p.PeriodsUsed)
	assert.True(t, p.AverageNet.Equal(dec("500")), p.AverageNet.String())
	assert.True(t, p.TrendSlope.Equal(dec("300")), p.TrendSlope.String())
	assert.True(t, p.CurrentSaved.Equal(dec("11400")))
}

func TestProject_MalformedInput(t *testing.T) {
	g := newGoal("0", now, "2024-10")
	_, err := Project(g, nil, now, DefaultConfig())
	assert.ErrorIs(t, err, model.ErrMalformedInput)

	g = newGoal("100", now, "2024-10")
	s := summaries("2024-10", "1", "2")
	s[0], s[1] = s[1], s[0]
	_, err = Project(g, s, now, DefaultConfig())
	assert.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestStatus(t *testing.T) {
	g := newGoal("1000", date("2025-06-30"), "2025-01")

	assert.Equal(t, model.GoalActive, Status(g, model.GoalProjection{CurrentSaved: dec("10")}, now))
	assert.Equal(t, model.GoalFailed, Status(g, model.GoalProjection{CurrentSaved: dec("10")}, date("2025-07-01")))
	assert.Equal(t, model.GoalAchieved, Status(g, model.GoalProjection{CurrentSaved: dec("1000")}, date("2025-07-01")))

	g.Status = model.GoalFailed
	assert.Equal(t, model.GoalFailed, Status(g, model.GoalProjection{CurrentSaved: dec("5000")}, now))
}
