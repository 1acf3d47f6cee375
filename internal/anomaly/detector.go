// Package anomaly flags unusual ledger entries by majority vote of independent detectors.
package anomaly

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cleared-dev/foresight/internal/model"
)

// Detector flags suspicious entries. Score returns the set of flagged entry IDs.
// A detector that cannot run on the given input returns an error wrapping
// model.ErrDetectorUnavailable.
type Detector interface {
	Name() string
	Score(ctx context.Context, entries []model.Entry, cfg Config) (map[string]bool, error)
}

// Registry maps detector names to implementations.
type Registry struct {
	detectors map[string]Detector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{detectors: make(map[string]Detector)}
}

// DefaultRegistry returns a registry holding every built-in detector.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ZScore{})
	r.Register(IsolationForest{})
	r.Register(Boundary{})
	r.Register(DBSCAN{})
	r.Register(IQR{})
	r.Register(LOF{})
	return r
}

// Register adds a detector. Panics on duplicate names.
func (r *Registry) Register(d Detector) {
	name := strings.ToLower(d.Name())
	if _, exists := r.detectors[name]; exists {
		panic(fmt.Sprintf("detector %q already registered", name))
	}
	r.detectors[name] = d
}

// Get returns the detector registered under name.
func (r *Registry) Get(name string) (Detector, bool) {
	d, ok := r.detectors[strings.ToLower(name)]
	return d, ok
}

// Names returns the registered detector names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unavailable(name, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", name, fmt.Sprintf(format, args...), model.ErrDetectorUnavailable)
}
