package ledger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/foresight/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestWriteReadEntries(t *testing.T) {
	entries := []model.Entry{
		{
			ID:          "01JH2Z6K8Y5V0Q3R4S5T6V7W8X",
			Date:        date(2025, 1, 3),
			Amount:      dec("4"),
			Kind:        model.KindOutflow,
			Category:    "software",
			Description: "GITHUB *PRO SUBSCRIPTION",
			Source:      "chase",
			Reference:   "chase_20250103_GITHUBPRO",
		},
		{
			ID:          "01JH2Z6K8Y5V0Q3R4S5T6V7W8Y",
			Date:        date(2025, 1, 15),
			Amount:      dec("3500.00"),
			Kind:        model.KindInflow,
			Category:    "consulting",
			Description: "ACME, invoice 1042",
			Source:      "manual",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries))
	assert.True(t, strings.HasPrefix(buf.String(), Header+"\n"))
	assert.Contains(t, buf.String(), ",4.00,")

	got, err := ReadEntries(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range entries {
		assert.Equal(t, entries[i].ID, got[i].ID)
		assert.True(t, entries[i].Date.Equal(got[i].Date))
		assert.True(t, entries[i].Amount.Equal(got[i].Amount))
		assert.Equal(t, entries[i].Kind, got[i].Kind)
		assert.Equal(t, entries[i].Description, got[i].Description)
		assert.Equal(t, entries[i].Reference, got[i].Reference)
	}
}

func TestReadEntries_Empty(t *testing.T) {
	got, err := ReadEntries(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want string
	}{
		{"short row", []string{"x"}, "expected 8 fields"},
		{"bad date", []string{"id", "2025/01/03", "outflow", "4.00", "", "", "", ""}, "parsing date"},
		{"bad kind", []string{"id", "2025-01-03", "sideways", "4.00", "", "", "", ""}, "unknown entry kind"},
		{"bad amount", []string{"id", "2025-01-03", "outflow", "four", "", "", "", ""}, "parsing amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.row)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUnmarshalEntry_KindAliases(t *testing.T) {
	e, err := UnmarshalEntry([]string{"id", "2025-01-03", "expense", "4.00", "software", "", "", ""})
	require.NoError(t, err)
	assert.Equal(t, model.KindOutflow, e.Kind)
}
