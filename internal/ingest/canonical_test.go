package ingest

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize_AliasMapping(t *testing.T) {
	rows := []RawRow{
		{
			"Data":            "2024-01-05",
			"Estabelecimento": "Netflix",
			"Valor":           "-39,90",
			"Tipo":            "assinatura",
			"Obs":             "cartao final 1234",
		},
	}

	out, err := Canonicalize(rows, MaxServerRows)
	require.NoError(t, err)
	require.Len(t, out, 1)

	row := out[0]
	assert.Equal(t, "2024-01-05", row.Date)
	assert.Equal(t, "Netflix", row.Description)
	assert.Equal(t, "assinatura", row.Category)
	assert.InDelta(t, -39.90, row.Amount, 1e-9)
	assert.True(t, row.HasDate)
	assert.True(t, row.HasAmount)
	assert.True(t, row.HasDescription)

	// Unmatched headers survive as passthrough context for the model.
	assert.Equal(t, "cartao final 1234", row.Extra["Obs"])
	_, claimed := row.Extra["Valor"]
	assert.False(t, claimed)
}

func TestCanonicalize_NumericAmountPassthrough(t *testing.T) {
	out, err := Canonicalize([]RawRow{
		{"date": "2024-01-06", "description": "Salary", "amount": 5000.00},
	}, MaxServerRows)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 5000.00, out[0].Amount)
}

func TestCanonicalize_DropsUnparseableRows(t *testing.T) {
	rows := []RawRow{
		{"note": "statement footer"},                      // nothing resolvable
		{"date": "2024-01-05", "note": "opening balance"}, // date only, kept
		{"amount": "10,00"},                               // amount only, kept
	}

	out, err := Canonicalize(rows, MaxServerRows)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "2024-01-05", out[0].Date)
	assert.InDelta(t, 10.0, out[1].Amount, 1e-9)
}

func TestCanonicalize_RowCap(t *testing.T) {
	rows := make([]RawRow, MaxClientRows+1)
	for i := range rows {
		rows[i] = RawRow{"date": "2024-01-01", "amount": 1.0, "description": "x"}
	}

	_, err := Canonicalize(rows, MaxClientRows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1001 rows exceeds the maximum of 1000")
}

func TestCanonicalize_MissingColumnsIsNotAnError(t *testing.T) {
	out, err := Canonicalize([]RawRow{
		{"when": "2024-01-05", "what": "coffee"}, // no canonical aliases at all
	}, MaxServerRows)
	require.NoError(t, err)
	// Row dropped (nothing resolvable) but ingestion itself succeeded.
	assert.Empty(t, out)
}

func TestRow_MarshalJSON(t *testing.T) {
	row := Row{
		Date:        "2024-01-05",
		Description: "Netflix",
		Amount:      -39.90,
		Extra:       map[string]any{"Obs": "recorrente"},
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "2024-01-05", m["date"])
	assert.Equal(t, -39.90, m["amount"])
	assert.Equal(t, "Netflix", m["description"])
	assert.Equal(t, "recorrente", m["Obs"])
	_, hasCategory := m["category"]
	assert.False(t, hasCategory)
}

func TestAbsoluteTotal(t *testing.T) {
	rows := []Row{
		{Amount: -39.90},
		{Amount: 5000.00},
		{Amount: math.NaN()}, // ignored
	}
	assert.InDelta(t, 5039.90, AbsoluteTotal(rows), 1e-9)
}

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"Data,Descricao,Valor",
		"2024-01-05,Netflix,\"-39,90\"",
		"2024-01-06,Salary,5000.00",
		",,",
	}, "\n")

	rows, err := ParseCSV(strings.NewReader(input), MaxClientRows)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Netflix", rows[0]["Descricao"])
	assert.Equal(t, "-39,90", rows[0]["Valor"])

	out, err := Canonicalize(rows, MaxClientRows)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, -39.90, out[0].Amount, 1e-9)
	assert.InDelta(t, 5000.00, out[1].Amount, 1e-9)
}

func TestParseCSV_RowCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("date,amount,description\n")
	for i := 0; i < 5; i++ {
		b.WriteString("2024-01-01,1.00,x\n")
	}

	_, err := ParseCSV(strings.NewReader(b.String()), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than 3 data rows")
}

func TestParseCSV_Empty(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(""), MaxClientRows)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
