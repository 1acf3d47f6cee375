// Package categorize assigns categories to imported transactions.
package categorize

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/foresight/internal/model"
)

// Fallback is the category used when nothing matches.
const Fallback = "uncategorized"

// RulesPath is the rules file relative to the repo root.
var RulesPath = filepath.Join("rules", "categorization-rules.yaml")

// Categorizer picks a category for a bank transaction.
type Categorizer interface {
	Categorize(txn model.BankTransaction) string
}

// Rule maps description keywords to a category. A rule with Kind set only
// applies to transactions of that kind.
type Rule struct {
	Category string     `yaml:"category"`
	Keywords []string   `yaml:"keywords"`
	Kind     model.Kind `yaml:"kind,omitempty"`
}

// RuleSet is the on-disk rules document.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// RuleCategorizer matches case-insensitive keywords in rule order. The first
// matching rule wins.
type RuleCategorizer struct {
	rules []Rule
}

// NewRuleCategorizer creates a categorizer from rules.
func NewRuleCategorizer(rules []Rule) *RuleCategorizer {
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kw = append(kw, k)
			}
		}
		normalized = append(normalized, Rule{Category: strings.TrimSpace(r.Category), Keywords: kw, Kind: r.Kind})
	}
	return &RuleCategorizer{rules: normalized}
}

// Rules returns the normalized rules.
func (c *RuleCategorizer) Rules() []Rule {
	return c.rules
}

// Categorize returns the transaction's own category when set, else the first
// matching rule's category, else Fallback.
func (c *RuleCategorizer) Categorize(txn model.BankTransaction) string {
	if cat := strings.TrimSpace(txn.Category); cat != "" {
		return cat
	}
	desc := strings.ToLower(txn.Description)
	for _, r := range c.rules {
		if r.Category == "" || (r.Kind != "" && r.Kind != txn.Kind()) {
			continue
		}
		for _, k := range r.Keywords {
			if strings.Contains(desc, k) {
				return r.Category
			}
		}
	}
	return Fallback
}

// Load reads the rules file under repoRoot. A missing file yields a
// categorizer that always falls back.
func Load(repoRoot string) (*RuleCategorizer, error) {
	path := filepath.Join(repoRoot, RulesPath)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRuleCategorizer(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing rules %s: %w", path, err)
	}
	for i, r := range set.Rules {
		if r.Kind != "" && !r.Kind.Valid() {
			return nil, fmt.Errorf("rule %d (%s): unknown kind %q", i+1, r.Category, r.Kind)
		}
	}
	return NewRuleCategorizer(set.Rules), nil
}

// Save writes a rules file under repoRoot.
func Save(repoRoot string, set RuleSet) error {
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	path := filepath.Join(repoRoot, RulesPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating rules dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}

// DefaultRules seeds a new project.
func DefaultRules() RuleSet {
	return RuleSet{Rules: []Rule{
		{Category: "software", Keywords: []string{"github", "aws", "google cloud", "heroku"}, Kind: model.KindOutflow},
		{Category: "consulting", Keywords: []string{"consulting", "invoice"}, Kind: model.KindInflow},
		{Category: "meals", Keywords: []string{"restaurant", "cafe", "coffee"}, Kind: model.KindOutflow},
		{Category: "office", Keywords: []string{"staples", "office depot"}, Kind: model.KindOutflow},
		{Category: "fees", Keywords: []string{"fee", "service charge"}, Kind: model.KindOutflow},
	}}
}
