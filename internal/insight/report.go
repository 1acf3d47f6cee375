package insight

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/foresight/internal/aggregate"
	"github.com/cleared-dev/foresight/internal/forecast"
	"github.com/cleared-dev/foresight/internal/id"
	"github.com/cleared-dev/foresight/internal/log"
	"github.com/cleared-dev/foresight/internal/model"
)

// topCategoryLimit caps the spending breakdown in a report.
const topCategoryLimit = 5

// Report is a one-shot view of the business: history, next month, unusual
// entries, and goal outlooks.
type Report struct {
	RunID       string                    `json:"run_id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Summaries   []model.PeriodSummary     `json:"summaries"`
	Forecast    model.ForecastResult      `json:"forecast"`
	Anomalies   *AnomalyReport            `json:"anomalies,omitempty"`
	Notes       []string                  `json:"notes,omitempty"`
	Goals       []GoalOutlook             `json:"goals"`
	TopOutflows []aggregate.CategoryTotal `json:"top_outflows"`
}

// Report refreshes the summaries once and runs every analysis over them.
// A ledger too small for anomaly detection becomes a note, not a failure.
func (s *Service) Report(ctx context.Context) (Report, error) {
	runID := id.New()
	start := time.Now()
	r, err := s.report(ctx, runID)
	details := fmt.Sprintf("%d periods, %d goals", len(r.Summaries), len(r.Goals))
	s.audit(runID, log.OpReport, err, details)
	if err == nil {
		s.logger.InfoContext(ctx, "report generated",
			log.FieldRunID, runID,
			log.FieldPeriods, len(r.Summaries),
			log.FieldDuration, time.Since(start).Milliseconds())
	}
	return r, err
}

func (s *Service) report(ctx context.Context, runID string) (Report, error) {
	entries, err := s.ledger.ReadAll()
	if err != nil {
		return Report{}, err
	}
	summaries, err := s.refresh(ctx, entries)
	if err != nil {
		return Report{}, err
	}
	goals, err := s.store.ListGoals(ctx, model.GoalActive)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		RunID:       runID,
		GeneratedAt: s.now().UTC(),
		Summaries:   summaries,
	}

	// Only the goal branch writes to the store.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		r.Forecast, err = forecast.Forecast(summaries, s.cfg.Forecast)
		return err
	})
	g.Go(func() error {
		a, err := s.detect(gctx, runID, entries)
		switch {
		case IsInsufficient(err):
			r.Notes = append(r.Notes, fmt.Sprintf("anomaly scan skipped: %v", err))
			return nil
		case err != nil:
			return err
		}
		r.Anomalies = &a
		return nil
	})
	g.Go(func() error {
		var err error
		r.Goals, err = s.projectAll(gctx, goals, summaries)
		return err
	})
	g.Go(func() error {
		if len(summaries) == 0 {
			return nil
		}
		last := summaries[len(summaries)-1].Period
		r.TopOutflows = aggregate.TopCategories(entries, last, model.KindOutflow, topCategoryLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return r, nil
}
