package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/foresight/internal/alerts"
	"github.com/cleared-dev/foresight/internal/audit"
	"github.com/cleared-dev/foresight/internal/config"
	"github.com/cleared-dev/foresight/internal/gitops"
	"github.com/cleared-dev/foresight/internal/insight"
	"github.com/cleared-dev/foresight/internal/ledger"
	"github.com/cleared-dev/foresight/internal/log"
	"github.com/cleared-dev/foresight/internal/store"
)

// project is an opened foresight repository.
type project struct {
	root   string
	cfg    *config.Config
	logger *log.Logger
	ledger *ledger.Service
	store  *store.Store
	pub    alerts.Publisher
}

func openProject(ctx context.Context, repo string) (*project, error) {
	root, err := filepath.Abs(repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if _, err := os.Stat(filepath.Join(root, config.FileName)); err != nil {
		return nil, fmt.Errorf("%s is not a foresight project (run foresight init): %w", root, err)
	}

	cfg, err := config.LoadProject(root)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.DBPath(root), logger)
	if err != nil {
		return nil, err
	}

	return &project{
		root:   root,
		cfg:    cfg,
		logger: logger,
		ledger: ledger.NewService(root),
		store:  st,
		pub:    alerts.NopPublisher{},
	}, nil
}

func newLogger(c config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	cfg := log.DefaultConfig()
	cfg.Level = level
	cfg.Format = c.Format
	return log.New(cfg), nil
}

// connectAlerts replaces the no-op publisher with a RabbitMQ client.
func (p *project) connectAlerts() error {
	a := p.cfg.Alerts
	if a.AMQPURL == "" {
		return errors.New("alerts.amqp_url is not configured (set it in foresight.yaml or FORESIGHT_ALERTS_AMQP_URL)")
	}
	client, err := alerts.NewClient(a.AMQPURL, a.Exchange, a.Queue, a.RoutingKey, p.logger)
	if err != nil {
		return err
	}
	p.pub = client
	return nil
}

func (p *project) insight() *insight.Service {
	return insight.NewService(p.root, p.cfg, p.ledger, p.store, p.logger, insight.WithPublisher(p.pub))
}

// commit records the project state in git when auto-commit is on.
func (p *project) commit(ctx context.Context, message string) {
	if !p.cfg.Git.AutoCommit || !gitops.IsRepo(p.root) {
		return
	}
	author := gitops.Author{Name: p.cfg.Git.AuthorName, Email: p.cfg.Git.AuthorEmail}
	hash, err := gitops.CommitAll(ctx, p.root, message, author)
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
	case err != nil:
		p.logger.Warn("git commit failed", log.FieldError, err)
	default:
		p.logger.Debug("committed", "hash", hash)
	}
}

func (p *project) audit(operation string, err error, details string) {
	status := audit.StatusOK
	if err != nil {
		status = audit.StatusFailed
		details = err.Error()
	}
	if werr := audit.Append(p.root, audit.NewRecord(operation, status, details)); werr != nil {
		p.logger.Warn("audit log write failed", log.FieldError, werr)
	}
}

func (p *project) Close() error {
	return errors.Join(p.pub.Close(), p.store.Close())
}
