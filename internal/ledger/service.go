// Package ledger stores entries as month-partitioned CSV files under
// <root>/ledger/YYYY/MM/entries.csv.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/foresight/internal/id"
	"github.com/cleared-dev/foresight/internal/model"
)

// Dir is the ledger directory relative to the repo root.
const Dir = "ledger"

const fileName = "entries.csv"

// Service reads and appends ledger entries.
type Service struct {
	repoRoot string
}

// NewService creates a ledger Service rooted at repoRoot.
func NewService(repoRoot string) *Service {
	return &Service{repoRoot: repoRoot}
}

// AppendResult reports what Append wrote.
type AppendResult struct {
	Added   []model.Entry
	Skipped int // entries whose reference was already in the ledger
}

// Append assigns IDs to entries lacking one, drops entries whose non-empty
// Reference already exists in their month, and appends the rest. Every
// affected month is validated in full before anything is written.
func (s *Service) Append(entries []model.Entry) (AppendResult, error) {
	var result AppendResult

	byMonth := make(map[model.Period][]model.Entry)
	var months []model.Period
	for _, e := range entries {
		if e.Date.IsZero() {
			return AppendResult{}, fmt.Errorf("entry %q: missing date: %w", e.ID, model.ErrMalformedInput)
		}
		p := e.Period()
		if _, ok := byMonth[p]; !ok {
			months = append(months, p)
		}
		byMonth[p] = append(byMonth[p], e)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	pending := make(map[model.Period][]model.Entry, len(months))
	for _, p := range months {
		existing, err := s.ReadMonth(p)
		if err != nil {
			return AppendResult{}, err
		}
		refs := make(map[string]bool, len(existing))
		for _, e := range existing {
			if e.Reference != "" {
				refs[e.Reference] = true
			}
		}

		var fresh []model.Entry
		for _, e := range byMonth[p] {
			if e.Reference != "" && refs[e.Reference] {
				result.Skipped++
				continue
			}
			if e.Reference != "" {
				refs[e.Reference] = true
			}
			if e.ID == "" {
				e.ID = id.NewAt(e.Date)
			}
			fresh = append(fresh, e)
		}
		if len(fresh) == 0 {
			continue
		}

		all := append(append([]model.Entry(nil), existing...), fresh...)
		if verrs := ValidateEntries(all, p); len(verrs) > 0 {
			msgs := make([]string, len(verrs))
			for i, ve := range verrs {
				msgs[i] = ve.Error()
			}
			return AppendResult{}, fmt.Errorf("validation failed for %s: %s: %w", p, strings.Join(msgs, "; "), model.ErrMalformedInput)
		}
		pending[p] = fresh
	}

	for _, p := range months {
		fresh, ok := pending[p]
		if !ok {
			continue
		}
		if err := s.appendMonth(p, fresh); err != nil {
			return result, err
		}
		result.Added = append(result.Added, fresh...)
	}
	return result, nil
}

func (s *Service) appendMonth(p model.Period, entries []model.Entry) error {
	path := s.Path(p)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := AppendEntries(f, entries); err != nil {
		return fmt.Errorf("appending entries to %s: %w", path, err)
	}
	return nil
}

// ReadMonth reads all entries of a month. A missing file is an empty month.
func (s *Service) ReadMonth(p model.Period) ([]model.Entry, error) {
	path := s.Path(p)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return entries, nil
}

// ReadAll reads every month in chronological order.
func (s *Service) ReadAll() ([]model.Entry, error) {
	months, err := s.Months()
	if err != nil {
		return nil, err
	}
	var all []model.Entry
	for _, p := range months {
		entries, err := s.ReadMonth(p)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// Months lists the months that have a ledger file, oldest first.
func (s *Service) Months() ([]model.Period, error) {
	root := filepath.Join(s.repoRoot, Dir)
	years, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger dir: %w", err)
	}

	var months []model.Period
	for _, y := range years {
		year, err := strconv.Atoi(y.Name())
		if !y.IsDir() || err != nil {
			continue
		}
		monthDirs, err := os.ReadDir(filepath.Join(root, y.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading ledger year %s: %w", y.Name(), err)
		}
		for _, m := range monthDirs {
			month, err := strconv.Atoi(m.Name())
			if !m.IsDir() || err != nil || month < 1 || month > 12 {
				continue
			}
			p := model.NewPeriod(year, time.Month(month))
			if _, err := os.Stat(s.Path(p)); err == nil {
				months = append(months, p)
			}
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months, nil
}

// Path returns the entries.csv path for a month.
func (s *Service) Path(p model.Period) string {
	return filepath.Join(s.repoRoot, Dir, fmt.Sprintf("%04d", p.Year()), fmt.Sprintf("%02d", int(p.Month())), fileName)
}
