// Package store persists period summaries and savings goals in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/foresight/internal/log"
	"github.com/cleared-dev/foresight/internal/model"

	_ "modernc.org/sqlite"
)

// ErrGoalNotFound is returned when a goal ID is unknown.
var ErrGoalNotFound = errors.New("goal not found")

const (
	dateFormat      = "2006-01-02"
	timestampFormat = time.RFC3339
)

// Store is the SQLite-backed summary and goal store.
type Store struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// Open creates the database file if needed, migrates it, and returns a Store.
func Open(ctx context.Context, dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		logger: logger.WithComponent(log.ComponentStore),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ReplaceSummaries makes summaries the full stored set inside one
// transaction: each period is upserted and periods missing from summaries
// are deleted. Readers see either the previous or the new set, never a mix.
func (s *Store) ReplaceSummaries(ctx context.Context, summaries []model.PeriodSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO period_summaries (period, total_inflow, total_outflow, net, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(period) DO UPDATE SET
			total_inflow = excluded.total_inflow,
			total_outflow = excluded.total_outflow,
			net = excluded.net,
			updated_at = excluded.updated_at`

	stamp := s.now().Format(timestampFormat)
	keys := make([]any, len(summaries))
	for i, sum := range summaries {
		keys[i] = sum.Period.Key()
		if _, err := tx.ExecContext(ctx, q,
			sum.Period.Key(),
			sum.TotalInflow.String(),
			sum.TotalOutflow.String(),
			sum.Net.String(),
			stamp,
		); err != nil {
			return fmt.Errorf("upsert summary %s: %w", sum.Period, err)
		}
	}

	prune := `DELETE FROM period_summaries`
	if len(keys) > 0 {
		prune += ` WHERE period NOT IN (?` + strings.Repeat(`, ?`, len(keys)-1) + `)`
	}
	if _, err := tx.ExecContext(ctx, prune, keys...); err != nil {
		return fmt.Errorf("prune summaries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit summaries: %w", err)
	}
	s.logger.DebugContext(ctx, "summaries replaced", log.FieldPeriods, len(summaries))
	return nil
}

// ListSummaries returns every stored summary, oldest first.
func (s *Store) ListSummaries(ctx context.Context) ([]model.PeriodSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT period, total_inflow, total_outflow, net FROM period_summaries ORDER BY period`)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []model.PeriodSummary
	for rows.Next() {
		var period, inflow, outflow, net string
		if err := rows.Scan(&period, &inflow, &outflow, &net); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum, err := decodeSummary(period, inflow, outflow, net)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func decodeSummary(period, inflow, outflow, net string) (model.PeriodSummary, error) {
	p, err := model.ParsePeriod(period)
	if err != nil {
		return model.PeriodSummary{}, err
	}
	values := make([]decimal.Decimal, 3)
	for i, raw := range []string{inflow, outflow, net} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return model.PeriodSummary{}, fmt.Errorf("summary %s: parsing %q: %w", period, raw, err)
		}
		values[i] = d
	}
	return model.PeriodSummary{Period: p, TotalInflow: values[0], TotalOutflow: values[1], Net: values[2]}, nil
}

// CreateGoal inserts a goal. The goal must carry an ID.
func (s *Store) CreateGoal(ctx context.Context, g model.Goal) error {
	if g.ID == "" {
		return fmt.Errorf("create goal: missing id: %w", model.ErrMalformedInput)
	}
	if g.Status == "" {
		g.Status = model.GoalActive
	}
	stamp := s.now().Format(timestampFormat)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, title, description, target_amount, target_date, creation_period, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.Description, g.TargetAmount.String(), g.TargetDate.Format(dateFormat),
		g.CreationPeriod.Key(), string(g.Status), stamp, stamp)
	if err != nil {
		return fmt.Errorf("create goal %s: %w", g.ID, err)
	}
	s.logger.InfoContext(ctx, "goal created", log.FieldGoalID, g.ID)
	return nil
}

const goalColumns = `id, title, description, target_amount, target_date, creation_period, status`

// GetGoal returns one goal or ErrGoalNotFound.
func (s *Store) GetGoal(ctx context.Context, id string) (model.Goal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Goal{}, fmt.Errorf("goal %s: %w", id, ErrGoalNotFound)
	}
	return g, err
}

// ListGoals returns goals in creation order. With statuses given, only goals
// in one of them are returned.
func (s *Store) ListGoals(ctx context.Context, statuses ...model.GoalStatus) ([]model.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	want := make(map[model.GoalStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var out []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		if len(want) == 0 || want[g.Status] {
			out = append(out, g)
		}
	}
	return out, rows.Err()
}

// UpdateGoalStatus sets a goal's lifecycle status.
func (s *Store) UpdateGoalStatus(ctx context.Context, id string, status model.GoalStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.now().Format(timestampFormat), id)
	if err != nil {
		return fmt.Errorf("update goal %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("goal %s: %w", id, ErrGoalNotFound)
	}
	s.logger.InfoContext(ctx, "goal status updated", log.FieldGoalID, id, log.FieldStatus, status)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(row scanner) (model.Goal, error) {
	var (
		g                                 model.Goal
		target, deadline, created, status string
	)
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &target, &deadline, &created, &status); err != nil {
		return model.Goal{}, err
	}

	amount, err := decimal.NewFromString(target)
	if err != nil {
		return model.Goal{}, fmt.Errorf("goal %s: parsing target %q: %w", g.ID, target, err)
	}
	date, err := time.Parse(dateFormat, deadline)
	if err != nil {
		return model.Goal{}, fmt.Errorf("goal %s: parsing target date %q: %w", g.ID, deadline, err)
	}
	p, err := model.ParsePeriod(created)
	if err != nil {
		return model.Goal{}, fmt.Errorf("goal %s: %w", g.ID, err)
	}

	g.TargetAmount = amount
	g.TargetDate = date
	g.CreationPeriod = p
	g.Status = model.GoalStatus(status)
	return g, nil
}
