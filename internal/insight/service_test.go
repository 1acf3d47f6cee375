package insight

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/foresight/internal/alerts"
	"github.com/cleared-dev/foresight/internal/audit"
	"github.com/cleared-dev/foresight/internal/config"
	"github.com/cleared-dev/foresight/internal/ledger"
	"github.com/cleared-dev/foresight/internal/model"
	"github.com/cleared-dev/foresight/internal/store"
)

var now = time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingPublisher struct {
	sent []alerts.AnomalyAlert
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msgs []alerts.AnomalyAlert) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msgs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// history is four months of consulting income and steady supply spending,
// with one 1000.00 supply purchase in April.
func history() []model.Entry {
	var out []model.Entry
	supplies := []string{"98.00", "101.50", "99.25", "102.00", "100.00"}
	for m := 1; m <= 4; m++ {
		out = append(out, model.Entry{
			Date:      date(2025, m, 2),
			Amount:    decimal.NewFromInt(int64(5000 + 1000*m)),
			Kind:      model.KindInflow,
			Category:  "consulting",
			Source:    "manual",
			Reference: fmt.Sprintf("in-%02d", m),
		})
		for i, amt := range supplies {
			out = append(out, model.Entry{
				Date:      date(2025, m, 10+i),
				Amount:    dec(amt),
				Kind:      model.KindOutflow,
				Category:  "supplies",
				Source:    "manual",
				Reference: fmt.Sprintf("s-%02d-%d", m, i),
			})
		}
	}
	return append(out, model.Entry{
		Date:      date(2025, 4, 20),
		Amount:    dec("1000.00"),
		Kind:      model.KindOutflow,
		Category:  "supplies",
		Source:    "manual",
		Reference: "spike",
	})
}

func newService(t *testing.T, entries []model.Entry, opts ...Option) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default("Test Co")

	l := ledger.NewService(root)
	if len(entries) > 0 {
		_, err := l.Append(entries)
		require.NoError(t, err)
	}

	st, err := store.Open(context.Background(), filepath.Join(root, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewService(root, cfg, l, st, nil, opts...), root
}

func TestRefresh(t *testing.T) {
	svc, _ := newService(t, history())

	summaries, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 4)

	nets := []string{"5499.25", "6499.25", "7499.25", "7499.25"}
	for i, s := range summaries {
		assert.Equal(t, nets[i], s.Net.StringFixed(2), s.Period.Key())
	}

	stored, err := svc.store.ListSummaries(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestForecast(t *testing.T) {
	svc, root := newService(t, history())

	res, err := svc.Forecast(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.StatusOK, res.Status)
	require.NotNil(t, res.Period)
	assert.Equal(t, "2025-05", res.Period.Key())
	require.NotNil(t, res.PredictedNet)
	assert.InDelta(t, 8499.25, res.PredictedNet.InexactFloat64(), 0.01)
	assert.Equal(t, 4, res.PeriodsUsed)

	records, err := audit.Read(root)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, audit.StatusOK, records[0].Status)
}

func TestForecast_EmptyLedger(t *testing.T) {
	svc, _ := newService(t, nil)

	res, err := svc.Forecast(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusInsufficientData, res.Status)
	assert.Nil(t, res.PredictedNet)
}

func TestAnomalies_FlagsSpikeAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(t, history(), WithPublisher(pub))

	report, err := svc.Anomalies(context.Background(), AnomalyOptions{Publish: true})
	require.NoError(t, err)
	assert.Equal(t, 25, report.Scanned)
	require.Len(t, report.Findings, 25)

	flagged := report.Flagged()
	var spike *Finding
	for i := range flagged {
		if flagged[i].Entry.Reference == "spike" {
			spike = &flagged[i]
		}
	}
	require.NotNil(t, spike, "spike not flagged")
	assert.GreaterOrEqual(t, spike.Verdict.Votes, 3)

	assert.Equal(t, len(flagged), report.Published)
	require.Len(t, pub.sent, report.Published)
	for _, a := range pub.sent {
		assert.Equal(t, report.RunID, a.RunID)
	}
}

func TestAnomalies_SingleMonthTooSmall(t *testing.T) {
	svc, root := newService(t, history())
	p := model.NewPeriod(2025, 1)

	_, err := svc.Anomalies(context.Background(), AnomalyOptions{Period: &p})
	require.Error(t, err)
	assert.True(t, IsInsufficient(err))

	records, err := audit.Read(root)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, audit.StatusFailed, records[0].Status)
}

func TestAnomalies_PublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newService(t, history(), WithPublisher(pub))

	_, err := svc.Anomalies(context.Background(), AnomalyOptions{Publish: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestAddGoal(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	g, err := svc.AddGoal(ctx, GoalParams{
		Title:        " Emergency fund ",
		TargetAmount: dec("10000"),
		TargetDate:   date(2025, 12, 31),
	})
	require.NoError(t, err)
	assert.Equal(t, "Emergency fund", g.Title)
	assert.Equal(t, "2025-05", g.CreationPeriod.Key())
	assert.Equal(t, model.GoalActive, g.Status)

	goals, err := svc.Goals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, g.ID, goals[0].ID)

	bad := []GoalParams{
		{Title: "", TargetAmount: dec("1"), TargetDate: date(2025, 12, 31)},
		{Title: "zero", TargetAmount: decimal.Zero, TargetDate: date(2025, 12, 31)},
		{Title: "no date", TargetAmount: dec("1")},
	}
	for _, p := range bad {
		_, err := svc.AddGoal(ctx, p)
		assert.ErrorIs(t, err, model.ErrMalformedInput, p.Title)
	}
}

func TestProjectGoal_MarksAchieved(t *testing.T) {
	svc, _ := newService(t, history())
	ctx := context.Background()

	g, err := svc.AddGoal(ctx, GoalParams{
		Title:          "Cushion",
		TargetAmount:   dec("20000"),
		TargetDate:     date(2025, 12, 31),
		CreationPeriod: model.NewPeriod(2025, 1),
	})
	require.NoError(t, err)

	out, err := svc.ProjectGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOK, out.Projection.Status)
	assert.Equal(t, "26997.00", out.Projection.CurrentSaved.StringFixed(2))
	assert.Equal(t, model.GoalAchieved, out.Goal.Status)

	stored, err := svc.store.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalAchieved, stored.Status)

	_, err = svc.ProjectGoal(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrGoalNotFound)
}

func TestProjectGoals_OnlyActive(t *testing.T) {
	svc, _ := newService(t, history())
	ctx := context.Background()

	small, err := svc.AddGoal(ctx, GoalParams{
		Title: "Small", TargetAmount: dec("1000"), TargetDate: date(2025, 12, 31),
		CreationPeriod: model.NewPeriod(2025, 1),
	})
	require.NoError(t, err)
	big, err := svc.AddGoal(ctx, GoalParams{
		Title: "Big", TargetAmount: dec("100000"), TargetDate: date(2025, 12, 31),
		CreationPeriod: model.NewPeriod(2025, 1),
	})
	require.NoError(t, err)

	first, err := svc.ProjectGoals(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.ProjectGoals(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, big.ID, second[0].Goal.ID)
	assert.Equal(t, model.GoalActive, second[0].Goal.Status)
	require.NotNil(t, second[0].Projection.SuccessProbability)
	assert.Less(t, *second[0].Projection.SuccessProbability, 50.0)

	got, err := svc.store.GetGoal(ctx, small.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalAchieved, got.Status)
}

func TestReport(t *testing.T) {
	svc, root := newService(t, history())
	ctx := context.Background()

	_, err := svc.AddGoal(ctx, GoalParams{
		Title: "Big", TargetAmount: dec("100000"), TargetDate: date(2025, 12, 31),
		CreationPeriod: model.NewPeriod(2025, 1),
	})
	require.NoError(t, err)

	r, err := svc.Report(ctx)
	require.NoError(t, err)
	assert.Len(t, r.Summaries, 4)
	assert.Equal(t, model.StatusOK, r.Forecast.Status)
	require.NotNil(t, r.Anomalies)
	assert.Empty(t, r.Notes)
	require.Len(t, r.Goals, 1)

	require.Len(t, r.TopOutflows, 1)
	assert.Equal(t, "supplies", r.TopOutflows[0].Category)
	assert.Equal(t, "1500.75", r.TopOutflows[0].Total.StringFixed(2))
	assert.Equal(t, 6, r.TopOutflows[0].Count)

	records, err := audit.Read(root)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "report", records[0].Operation)
}

func TestReport_SmallLedgerAddsNote(t *testing.T) {
	svc, _ := newService(t, history()[:6])

	r, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.Nil(t, r.Anomalies)
	require.Len(t, r.Notes, 1)
	assert.Contains(t, r.Notes[0], "anomaly scan skipped")
	assert.Equal(t, model.StatusInsufficientData, r.Forecast.Status)
	assert.Empty(t, r.Goals)
}
