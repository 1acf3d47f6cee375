package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction represents a parsed bank CSV row.
type BankTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = outflow, positive = inflow
	Reference   string
	Type        string // bank transaction type (ACH_DEBIT, etc.)
	Category    string // empty when the export carries none
}

// Kind derives the entry kind from the amount's sign.
func (t BankTransaction) Kind() Kind {
	if t.Amount.IsNegative() {
		return KindOutflow
	}
	return KindInflow
}

// ToEntry converts the transaction into a ledger entry with the given ID and
// source. The amount is made positive.
func (t BankTransaction) ToEntry(id, source string) Entry {
	return Entry{
		ID:          id,
		Date:        t.Date,
		Amount:      t.Amount.Abs(),
		Kind:        t.Kind(),
		Category:    t.Category,
		Description: t.Description,
		Source:      source,
		Reference:   t.Reference,
	}
}
