// Package insight wires the ledger, summary store and analytics together.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/foresight/internal/aggregate"
	"github.com/cleared-dev/foresight/internal/alerts"
	"github.com/cleared-dev/foresight/internal/anomaly"
	"github.com/cleared-dev/foresight/internal/audit"
	"github.com/cleared-dev/foresight/internal/config"
	"github.com/cleared-dev/foresight/internal/forecast"
	"github.com/cleared-dev/foresight/internal/goal"
	"github.com/cleared-dev/foresight/internal/id"
	"github.com/cleared-dev/foresight/internal/ledger"
	"github.com/cleared-dev/foresight/internal/log"
	"github.com/cleared-dev/foresight/internal/model"
	"github.com/cleared-dev/foresight/internal/store"
)

// Service runs analytics over a project.
type Service struct {
	repoRoot  string
	cfg       *config.Config
	ledger    *ledger.Service
	store     *store.Store
	ensemble  *anomaly.Ensemble
	publisher alerts.Publisher
	logger    *log.Logger
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher sets where anomaly alerts go. The default drops them.
func WithPublisher(p alerts.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithDetectors replaces the built-in detector registry.
func WithDetectors(r *anomaly.Registry) Option {
	return func(s *Service) { s.ensemble = anomaly.NewEnsemble(r, s.cfg.Anomaly, s.logger) }
}

// NewService creates an insight Service.
func NewService(repoRoot string, cfg *config.Config, l *ledger.Service, st *store.Store, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Service{
		repoRoot:  repoRoot,
		cfg:       cfg,
		ledger:    l,
		store:     st,
		publisher: alerts.NopPublisher{},
		logger:    logger.WithComponent(log.ComponentInsight),
		now:       time.Now,
	}
	s.ensemble = anomaly.NewEnsemble(nil, cfg.Anomaly, logger)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh recomputes every monthly summary from the ledger and stores it.
func (s *Service) Refresh(ctx context.Context) ([]model.PeriodSummary, error) {
	entries, err := s.ledger.ReadAll()
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, entries)
}

func (s *Service) refresh(ctx context.Context, entries []model.Entry) ([]model.PeriodSummary, error) {
	summaries, err := aggregate.Summarize(entries)
	if err != nil {
		return nil, fmt.Errorf("summarizing ledger: %w", err)
	}
	if err := s.store.ReplaceSummaries(ctx, summaries); err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "summaries refreshed",
		log.FieldOperation, log.OpRefresh,
		log.FieldEntries, len(entries),
		log.FieldPeriods, len(summaries))
	return summaries, nil
}

// Forecast refreshes the summaries and predicts next month's net.
func (s *Service) Forecast(ctx context.Context) (model.ForecastResult, error) {
	runID := id.New()
	summaries, err := s.Refresh(ctx)
	if err != nil {
		s.audit(runID, log.OpForecast, err, "")
		return model.ForecastResult{}, err
	}
	result, err := forecast.Forecast(summaries, s.cfg.Forecast)
	s.audit(runID, log.OpForecast, err, describeForecast(result))
	return result, err
}

// Finding pairs an entry with the ensemble's verdict on it.
type Finding struct {
	Entry   model.Entry          `json:"entry"`
	Verdict model.AnomalyVerdict `json:"verdict"`
}

// AnomalyOptions narrows and routes an anomaly scan.
type AnomalyOptions struct {
	// Period limits the scan to one month when set.
	Period *model.Period
	// Publish sends flagged entries to the alert publisher.
	Publish bool
}

// AnomalyReport is the outcome of one scan.
type AnomalyReport struct {
	RunID     string    `json:"run_id"`
	Scanned   int       `json:"scanned"`
	Findings  []Finding `json:"findings"`
	Published int       `json:"published"`
}

// Flagged returns the findings the ensemble judged anomalous.
func (r AnomalyReport) Flagged() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Verdict.IsAnomaly {
			out = append(out, f)
		}
	}
	return out
}

// Anomalies scans ledger entries with the detector ensemble.
func (s *Service) Anomalies(ctx context.Context, opts AnomalyOptions) (AnomalyReport, error) {
	runID := id.New()
	var (
		entries []model.Entry
		err     error
	)
	if opts.Period != nil {
		entries, err = s.ledger.ReadMonth(*opts.Period)
	} else {
		entries, err = s.ledger.ReadAll()
	}
	if err != nil {
		s.audit(runID, log.OpDetect, err, "")
		return AnomalyReport{}, err
	}

	report, err := s.detect(ctx, runID, entries)
	if err != nil {
		s.audit(runID, log.OpDetect, err, fmt.Sprintf("%d entries", len(entries)))
		return AnomalyReport{}, err
	}

	if opts.Publish {
		flagged := report.Flagged()
		msgs := make([]alerts.AnomalyAlert, len(flagged))
		for i, f := range flagged {
			msgs[i] = alerts.NewAnomalyAlert(runID, f.Entry, f.Verdict, s.now())
		}
		if err := s.publisher.Publish(ctx, msgs); err != nil {
			s.audit(runID, log.OpPublish, err, "")
			return report, fmt.Errorf("publishing alerts: %w", err)
		}
		report.Published = len(msgs)
	}

	s.audit(runID, log.OpDetect, nil, fmt.Sprintf("%d entries, %d flagged, %d published",
		report.Scanned, len(report.Flagged()), report.Published))
	return report, nil
}

func (s *Service) detect(ctx context.Context, runID string, entries []model.Entry) (AnomalyReport, error) {
	verdicts, err := s.ensemble.Detect(ctx, entries)
	if err != nil {
		return AnomalyReport{}, err
	}
	findings := make([]Finding, len(entries))
	for i, e := range entries {
		findings[i] = Finding{Entry: e, Verdict: verdicts[i]}
	}
	return AnomalyReport{RunID: runID, Scanned: len(entries), Findings: findings}, nil
}

// GoalParams describes a new savings goal.
type GoalParams struct {
	Title        string
	Description  string
	TargetAmount decimal.Decimal
	TargetDate   time.Time
	// CreationPeriod defaults to the current month.
	CreationPeriod model.Period
}

// AddGoal validates and stores a new goal.
func (s *Service) AddGoal(ctx context.Context, params GoalParams) (model.Goal, error) {
	if strings.TrimSpace(params.Title) == "" {
		return model.Goal{}, fmt.Errorf("goal title is required: %w", model.ErrMalformedInput)
	}
	if !params.TargetAmount.IsPositive() {
		return model.Goal{}, fmt.Errorf("goal target %s must be positive: %w", params.TargetAmount, model.ErrMalformedInput)
	}
	if params.TargetDate.IsZero() {
		return model.Goal{}, fmt.Errorf("goal target date is required: %w", model.ErrMalformedInput)
	}

	created := params.CreationPeriod
	if created.IsZero() {
		created = model.PeriodOf(s.now())
	}
	g := model.Goal{
		ID:             id.NewAt(s.now()),
		Title:          strings.TrimSpace(params.Title),
		Description:    params.Description,
		TargetAmount:   params.TargetAmount,
		TargetDate:     params.TargetDate,
		CreationPeriod: created,
		Status:         model.GoalActive,
	}
	if err := s.store.CreateGoal(ctx, g); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

// Goals lists stored goals, optionally filtered by status.
func (s *Service) Goals(ctx context.Context, statuses ...model.GoalStatus) ([]model.Goal, error) {
	return s.store.ListGoals(ctx, statuses...)
}

// GoalOutlook is a goal with its projection.
type GoalOutlook struct {
	Goal       model.Goal           `json:"goal"`
	Projection model.GoalProjection `json:"projection"`
}

// ProjectGoal refreshes the summaries, projects one goal, and moves it to
// achieved or failed when the projection says so.
func (s *Service) ProjectGoal(ctx context.Context, goalID string) (GoalOutlook, error) {
	runID := id.New()
	g, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		s.audit(runID, log.OpProject, err, goalID)
		return GoalOutlook{}, err
	}
	summaries, err := s.Refresh(ctx)
	if err != nil {
		s.audit(runID, log.OpProject, err, goalID)
		return GoalOutlook{}, err
	}
	outlook, err := s.project(ctx, g, summaries)
	s.audit(runID, log.OpProject, err, describeGoal(outlook))
	return outlook, err
}

// ProjectGoals projects every active goal against one refresh of the
// summaries.
func (s *Service) ProjectGoals(ctx context.Context) ([]GoalOutlook, error) {
	runID := id.New()
	goals, err := s.store.ListGoals(ctx, model.GoalActive)
	if err != nil {
		s.audit(runID, log.OpProject, err, "")
		return nil, err
	}
	summaries, err := s.Refresh(ctx)
	if err != nil {
		s.audit(runID, log.OpProject, err, "")
		return nil, err
	}
	out, err := s.projectAll(ctx, goals, summaries)
	s.audit(runID, log.OpProject, err, fmt.Sprintf("%d goals", len(out)))
	return out, err
}

func (s *Service) projectAll(ctx context.Context, goals []model.Goal, summaries []model.PeriodSummary) ([]GoalOutlook, error) {
	out := make([]GoalOutlook, 0, len(goals))
	for _, g := range goals {
		o, err := s.project(ctx, g, summaries)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *Service) project(ctx context.Context, g model.Goal, summaries []model.PeriodSummary) (GoalOutlook, error) {
	now := s.now()
	p, err := goal.Project(g, summaries, now, s.cfg.Goals)
	if err != nil {
		return GoalOutlook{}, err
	}
	if next := goal.Status(g, p, now); next != g.Status {
		if err := s.store.UpdateGoalStatus(ctx, g.ID, next); err != nil {
			return GoalOutlook{}, err
		}
		s.logger.InfoContext(ctx, "goal status changed",
			log.FieldGoalID, g.ID, "from", g.Status, "to", next)
		g.Status = next
	}
	return GoalOutlook{Goal: g, Projection: p}, nil
}

func (s *Service) audit(runID, operation string, err error, details string) {
	rec := audit.Record{
		Timestamp: s.now().UTC(),
		RunID:     runID,
		Operation: operation,
		Status:    audit.StatusOK,
		Details:   details,
	}
	if err != nil {
		rec.Status = audit.StatusFailed
		rec.Details = strings.TrimSpace(details + " " + err.Error())
	}
	if werr := audit.Append(s.repoRoot, rec); werr != nil {
		s.logger.Warn("audit log write failed", log.FieldRunID, runID, log.FieldError, werr)
	}
}

func describeForecast(r model.ForecastResult) string {
	if r.Status != model.StatusOK || r.Period == nil {
		return fmt.Sprintf("%s after %d periods", r.Status, r.PeriodsUsed)
	}
	return fmt.Sprintf("%s net %s [%s, %s]", r.Period, r.PredictedNet.StringFixed(2),
		r.Lower.StringFixed(2), r.Upper.StringFixed(2))
}

func describeGoal(o GoalOutlook) string {
	if o.Goal.ID == "" {
		return ""
	}
	return fmt.Sprintf("%s %s progress %.2f%%", o.Goal.ID, o.Projection.Status, o.Projection.ProgressPercent)
}

// IsInsufficient reports whether err means there was too little data.
func IsInsufficient(err error) bool {
	return errors.Is(err, model.ErrInsufficientData)
}
