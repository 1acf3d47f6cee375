package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cleared-dev/foresight/internal/model"
)

// ChaseParser parses Chase checking account CSV exports.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4
	chaseColCheck   = 6
	chaseRefPrefix  = 10
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Matches recognizes the "Details,Posting Date,..." header.
func (p *ChaseParser) Matches(header []string) bool {
	return len(header) == chaseNumFields && hasPrefix(header, "details", "posting date", "description", "amount")
}

// Parse reads a Chase CSV. Amounts keep the bank's sign.
func (p *ChaseParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	return parseRows(r, "chase", chaseNumFields, func(rec []string) (model.BankTransaction, error) {
		date, err := parseDate(chaseDateFormat, rec[chaseColDate])
		if err != nil {
			return model.BankTransaction{}, err
		}
		amount, err := parseAmount(rec[chaseColAmount])
		if err != nil {
			return model.BankTransaction{}, err
		}
		desc := strings.TrimSpace(rec[chaseColDesc])
		return model.BankTransaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Reference:   chaseRef(date, desc, strings.TrimSpace(rec[chaseColCheck])),
			Type:        rec[chaseColType],
		}, nil
	})
}

// chaseRef is chase_<yyyymmdd>_<check number>, or the first few
// alphanumerics of the description when there is no check.
func chaseRef(date time.Time, desc, check string) string {
	day := date.Format("20060102")
	if check != "" {
		return fmt.Sprintf("chase_%s_%s", day, check)
	}
	var b strings.Builder
	for _, r := range desc {
		if b.Len() == chaseRefPrefix {
			break
		}
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return fmt.Sprintf("chase_%s_%s", day, b.String())
}
