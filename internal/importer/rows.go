package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/foresight/internal/model"
)

var errZeroAmount = errors.New("zero amount")

// rowFunc converts one data row. Rows are numbered from 2 so errors match
// the line a spreadsheet shows.
type rowFunc func(rec []string) (model.BankTransaction, error)

// parseRows skips the header and converts every remaining row with fn.
// fields is passed to csv.Reader.FieldsPerRecord.
func parseRows(r io.Reader, format string, fields int, fn rowFunc) ([]model.BankTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s CSV: %w", format, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	txns := make([]model.BankTransaction, 0, len(records)-1)
	for i, rec := range records[1:] {
		txn, err := fn(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseDate(layout, s string) (time.Time, error) {
	d, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return d, nil
}

// parseAmount reads a signed decimal and rejects zero.
func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if amount.IsZero() {
		return decimal.Zero, errZeroAmount
	}
	return amount, nil
}
