package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of an entry.
type Kind string

const (
	KindInflow  Kind = "inflow"
	KindOutflow Kind = "outflow"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindInflow || k == KindOutflow
}

// ParseKind accepts the canonical names plus the income/expense aliases used by
// bank exports and older ledgers.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inflow", "income", "credit":
		return KindInflow, nil
	case "outflow", "expense", "debit":
		return KindOutflow, nil
	}
	return "", fmt.Errorf("unknown entry kind %q", s)
}

// Entry is a single dated ledger record. Amount is always positive; Kind
// carries the sign.
type Entry struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        Kind            `json:"kind"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Source      string          `json:"source,omitempty"`    // importer format or "manual"
	Reference   string          `json:"reference,omitempty"` // bank reference used for de-duplication
}

// Period returns the month the entry belongs to.
func (e Entry) Period() Period {
	return PeriodOf(e.Date)
}

// Signed returns the amount with outflows negated.
func (e Entry) Signed() decimal.Decimal {
	if e.Kind == KindOutflow {
		return e.Amount.Neg()
	}
	return e.Amount
}

// GroupKey identifies the kind/category bucket an entry is scored in.
// "outflow/groceries"
func (e Entry) GroupKey() string {
	return string(e.Kind) + "/" + strings.ToLower(strings.TrimSpace(e.Category))
}

// Validate checks the fields every consumer of an entry relies on.
func (e Entry) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("entry %q: missing date: %w", e.ID, ErrMalformedInput)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("entry %q: amount %s must be positive: %w", e.ID, e.Amount, ErrMalformedInput)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("entry %q: unknown kind %q: %w", e.ID, e.Kind, ErrMalformedInput)
	}
	return nil
}
