package importer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/foresight/internal/categorize"
	"github.com/cleared-dev/foresight/internal/ledger"
	"github.com/cleared-dev/foresight/internal/log"
	"github.com/cleared-dev/foresight/internal/model"
)

// Service parses bank files, categorizes them and appends them to the ledger.
type Service struct {
	repoRoot    string
	ledger      *ledger.Service
	parsers     *Registry
	categorizer categorize.Categorizer
	logger      *log.Logger
}

// NewService creates an import Service.
func NewService(repoRoot string, l *ledger.Service, parsers *Registry, c categorize.Categorizer, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		repoRoot:    repoRoot,
		ledger:      l,
		parsers:     parsers,
		categorizer: c,
		logger:      logger.WithComponent(log.ComponentImport),
	}
}

// Result summarizes one imported file.
type Result struct {
	File    string        `json:"file"`
	Format  string        `json:"format"`
	Parsed  int           `json:"parsed"`
	Added   int           `json:"added"`
	Skipped int           `json:"skipped"`
	Entries []model.Entry `json:"-"`
}

// ImportFile imports one CSV. An empty format is detected from the header.
func (s *Service) ImportFile(path, format string) (Result, error) {
	var p Parser
	if format == "" {
		detected, err := s.parsers.Detect(path)
		if err != nil {
			return Result{}, err
		}
		p = detected
	} else if p = s.parsers.Get(format); p == nil {
		return Result{}, fmt.Errorf("unknown format %q (formats: %v)", format, s.parsers.Formats())
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	txns, err := p.Parse(f)
	if err != nil {
		return Result{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	entries := make([]model.Entry, len(txns))
	for i, txn := range txns {
		txn.Category = s.categorizer.Categorize(txn)
		entries[i] = txn.ToEntry("", p.Format())
	}

	appended, err := s.ledger.Append(entries)
	if err != nil {
		return Result{}, fmt.Errorf("importing %s: %w", filepath.Base(path), err)
	}

	res := Result{
		File:    filepath.Base(path),
		Format:  p.Format(),
		Parsed:  len(txns),
		Added:   len(appended.Added),
		Skipped: appended.Skipped,
		Entries: appended.Added,
	}
	s.logger.Info("file imported",
		log.FieldOperation, log.OpImport,
		log.FieldPath, res.File,
		"format", res.Format,
		"added", res.Added,
		"skipped", res.Skipped)
	return res, nil
}

// ImportPending imports every CSV waiting in <repoRoot>/import/ and moves each
// to import/processed/ once its entries are in the ledger. It stops at the
// first failing file; files already imported stay processed.
func (s *Service) ImportPending() ([]Result, error) {
	files, err := Scan(s.repoRoot)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, f := range files {
		res, err := s.ImportFile(f.Path, "")
		if err != nil {
			return results, err
		}
		if err := MarkProcessed(s.repoRoot, f.Name); err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
