package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/foresight/internal/id"
	"github.com/cleared-dev/foresight/internal/model"
)

// Rules checked by ValidateEntries.
const (
	RuleID       = "id"
	RuleUnique   = "unique"
	RuleInMonth  = "in_month"
	RuleAmount   = "amount"
	RuleCents    = "cents"
	RuleKind     = "kind"
	RuleCategory = "category"
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Rule        string
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.EntryID, e.Description)
}

// ValidateEntries checks one month's entries as a whole.
func ValidateEntries(entries []model.Entry, p model.Period) []ValidationError {
	var errs []ValidationError
	add := func(rule, entryID, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, EntryID: entryID, Description: fmt.Sprintf(format, args...)})
	}

	hundred := decimal.NewFromInt(100)
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !id.Valid(e.ID) {
			add(RuleID, e.ID, "not a valid ULID")
		}
		if seen[e.ID] {
			add(RuleUnique, e.ID, "duplicate entry ID")
		}
		seen[e.ID] = true

		if !p.Contains(e.Date) {
			add(RuleInMonth, e.ID, "date %s not in %s", e.Date.Format(dateFormat), p)
		}
		if !e.Amount.IsPositive() {
			add(RuleAmount, e.ID, "amount %s must be positive", e.Amount)
		}
		if scaled := e.Amount.Mul(hundred); !scaled.Equal(scaled.Floor()) {
			add(RuleCents, e.ID, "amount %s has more than 2 decimal places", e.Amount)
		}
		if !e.Kind.Valid() {
			add(RuleKind, e.ID, "unknown kind %q", e.Kind)
		}
		if e.Category == "" {
			add(RuleCategory, e.ID, "missing category")
		}
	}
	return errs
}
