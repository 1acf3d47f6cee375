package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/foresight/internal/model"
)

// GenericParser reads the project's own export layout:
//
//	date,amount,kind,category,description[,reference]
//
// Amounts may be signed with an empty kind; the sign then decides the kind.
type GenericParser struct{}

const (
	genericDateFormat = "2006-01-02"
	genericMinFields  = 5
	genericMaxFields  = 6
	genericColDate    = 0
	genericColAmount  = 1
	genericColKind    = 2
	genericColCat     = 3
	genericColDesc    = 4
	genericColRef     = 5
)

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Matches recognizes the "date,amount,kind,..." header.
func (p *GenericParser) Matches(header []string) bool {
	return hasPrefix(header, "date", "amount", "kind", "category", "description")
}

// Parse reads a generic CSV and returns BankTransactions with signed amounts.
func (p *GenericParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	return parseRows(r, "generic", -1, parseGenericRow)
}

func parseGenericRow(rec []string) (model.BankTransaction, error) {
	if len(rec) < genericMinFields || len(rec) > genericMaxFields {
		return model.BankTransaction{}, fmt.Errorf("expected %d or %d fields, got %d", genericMinFields, genericMaxFields, len(rec))
	}
	date, err := parseDate(genericDateFormat, rec[genericColDate])
	if err != nil {
		return model.BankTransaction{}, err
	}
	amount, err := parseAmount(rec[genericColAmount])
	if err != nil {
		return model.BankTransaction{}, err
	}

	// An explicit kind overrides the sign.
	if k := strings.TrimSpace(rec[genericColKind]); k != "" {
		kind, err := model.ParseKind(k)
		if err != nil {
			return model.BankTransaction{}, err
		}
		amount = amount.Abs()
		if kind == model.KindOutflow {
			amount = amount.Neg()
		}
	}

	txn := model.BankTransaction{
		Date:        date,
		Description: strings.TrimSpace(rec[genericColDesc]),
		Amount:      amount,
		Category:    strings.TrimSpace(rec[genericColCat]),
	}
	if len(rec) > genericColRef {
		txn.Reference = strings.TrimSpace(rec[genericColRef])
	}
	return txn, nil
}
