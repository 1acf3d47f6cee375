package anomaly

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cleared-dev/foresight/internal/log"
	"github.com/cleared-dev/foresight/internal/model"
)

// Ensemble runs the configured detectors and combines their flags by majority vote.
type Ensemble struct {
	registry *Registry
	cfg      Config
	logger   *log.Logger
}

// NewEnsemble creates an ensemble. A nil registry means DefaultRegistry; a nil
// logger discards output.
func NewEnsemble(registry *Registry, cfg Config, logger *log.Logger) *Ensemble {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Ensemble{
		registry: registry,
		cfg:      cfg,
		logger:   logger.WithComponent(log.ComponentAnomaly),
	}
}

// Detect returns one verdict per entry, in input order.
func (e *Ensemble) Detect(ctx context.Context, entries []model.Entry) ([]model.AnomalyVerdict, error) {
	if err := checkEntries(entries); err != nil {
		return nil, err
	}
	if len(entries) < e.cfg.MinEntries {
		return nil, fmt.Errorf("anomaly scan needs %d entries, got %d: %w",
			e.cfg.MinEntries, len(entries), model.ErrInsufficientData)
	}

	flags := make(map[string]map[string]bool)
	var active []string
	for _, name := range e.detectorNames() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, ok := e.registry.Get(name)
		if !ok {
			e.logger.WarnContext(ctx, "unknown detector skipped", log.FieldDetector, name)
			continue
		}

		start := time.Now()
		flagged, err := d.Score(ctx, entries, e.cfg)
		if errors.Is(err, model.ErrDetectorUnavailable) {
			e.logger.WarnContext(ctx, "detector unavailable", log.FieldDetector, name, log.FieldError, err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("running detector %s: %w", name, err)
		}
		e.logger.DebugContext(ctx, "detector finished",
			log.FieldDetector, name,
			log.FieldFlagged, len(flagged),
			log.FieldDuration, time.Since(start).Milliseconds())

		flags[name] = flagged
		active = append(active, name)
	}

	if len(active) == 0 {
		return nil, fmt.Errorf("no detector could run: %w", model.ErrDetectorUnavailable)
	}

	verdicts := Combine(entries, active, flags)
	anomalies := 0
	for _, v := range verdicts {
		if v.IsAnomaly {
			anomalies++
		}
	}
	e.logger.InfoContext(ctx, "anomaly scan finished",
		log.FieldOperation, log.OpDetect,
		log.FieldEntries, len(entries),
		"detectors", strings.Join(active, ","),
		log.FieldFlagged, anomalies)
	return verdicts, nil
}

// detectorNames resolves the configured detector list: sorted, de-duplicated,
// defaulting to every registered detector.
func (e *Ensemble) detectorNames() []string {
	if len(e.cfg.Detectors) == 0 {
		return e.registry.Names()
	}
	seen := make(map[string]bool)
	var names []string
	for _, n := range e.cfg.Detectors {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Combine counts votes from the active detectors. An entry is anomalous only
// on a strict majority; an exact half is not.
func Combine(entries []model.Entry, active []string, flags map[string]map[string]bool) []model.AnomalyVerdict {
	names := append([]string(nil), active...)
	sort.Strings(names)

	verdicts := make([]model.AnomalyVerdict, len(entries))
	for i, entry := range entries {
		v := model.AnomalyVerdict{
			EntryID:        entry.ID,
			TotalDetectors: len(names),
			FlaggedBy:      []string{},
		}
		for _, name := range names {
			if flags[name][entry.ID] {
				v.Votes++
				v.FlaggedBy = append(v.FlaggedBy, name)
			}
		}
		if len(names) > 0 {
			v.Confidence = float64(v.Votes) / float64(len(names))
		}
		v.IsAnomaly = v.Votes*2 > len(names)
		verdicts[i] = v
	}
	return verdicts
}

func checkEntries(entries []model.Entry) error {
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if e.ID == "" {
			return fmt.Errorf("entry %d: missing id: %w", i, model.ErrMalformedInput)
		}
		if seen[e.ID] {
			return fmt.Errorf("entry %d: duplicate id %s: %w", i, e.ID, model.ErrMalformedInput)
		}
		seen[e.ID] = true
	}
	return nil
}
