// Package ingest normalizes heterogeneous bank-statement CSV input into the
// canonical row schema {date, amount, description, category?} consumed by
// the analysis pipeline. Column names are matched against an explicit
// ordered alias table, so the mapping never depends on map iteration order.
package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/finglow/finglow/internal/currency"
)

// Row count caps. The client cap mirrors what the dashboard enforces before
// upload; the server cap is the hard structural limit.
const (
	MaxClientRows = 1000
	MaxServerRows = 10000
)

// RawRow is one statement line as it arrives from the client: column name to
// untyped value. Ephemeral, never persisted in this form.
type RawRow = map[string]any

// Row is a canonicalized statement line. Headers that did not resolve to a
// canonical field are preserved in Extra so the model still sees them.
type Row struct {
	Date        string
	Description string
	Category    string
	Amount      float64
	Extra       map[string]any

	// Presence flags record whether an aliased column resolved for this
	// row; the structure validator reports on them.
	HasDate        bool
	HasAmount      bool
	HasDescription bool
}

// fieldAliases is evaluated in order; within a field, aliases are tried in
// order and the first matching header wins.
var fieldAliases = []struct {
	field   string
	aliases []string
}{
	{"date", []string{"date", "data", "dt", "datetime"}},
	{"amount", []string{"amount", "valor", "value", "quantia", "saldo", "total"}},
	{"description", []string{"description", "descricao", "desc", "memo", "estabelecimento", "merchant"}},
	{"category", []string{"category", "categoria", "tipo", "type"}},
}

// Canonicalize maps raw rows onto the canonical schema, normalizes amounts
// and drops rows that carry neither an amount nor a date/description.
// It rejects inputs above maxRows with a count-specific error. Missing
// canonical columns are NOT an error here: the structure validator surfaces
// those so the caller gets every problem in one response.
func Canonicalize(rows []RawRow, maxRows int) ([]Row, error) {
	if len(rows) > maxRows {
		return nil, fmt.Errorf("ingest.Canonicalize: %d rows exceeds the maximum of %d", len(rows), maxRows)
	}

	out := make([]Row, 0, len(rows))
	for _, raw := range rows {
		row := canonicalizeRow(raw)

		// A line with no amount and no date/description is unparseable
		// noise (separator lines, footers), not merely incomplete.
		if !row.HasAmount && !row.HasDate && !row.HasDescription {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func canonicalizeRow(raw RawRow) Row {
	// Sorted key scan keeps header resolution deterministic for map input.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := Row{Extra: make(map[string]any)}
	claimed := make(map[string]bool, 4)

	for _, fa := range fieldAliases {
		key, ok := resolveHeader(keys, claimed, fa.aliases)
		if !ok {
			continue
		}
		claimed[key] = true

		switch fa.field {
		case "date":
			row.Date = stringValue(raw[key])
			row.HasDate = row.Date != ""
		case "amount":
			row.Amount = currency.Normalize(raw[key])
			row.HasAmount = true
		case "description":
			row.Description = stringValue(raw[key])
			row.HasDescription = row.Description != ""
		case "category":
			row.Category = stringValue(raw[key])
		}
	}

	for _, k := range keys {
		if !claimed[k] {
			row.Extra[k] = raw[k]
		}
	}
	return row
}

// resolveHeader returns the first unclaimed header whose lowercased name
// contains one of the aliases.
func resolveHeader(keys []string, claimed map[string]bool, aliases []string) (string, bool) {
	for _, alias := range aliases {
		for _, k := range keys {
			if claimed[k] {
				continue
			}
			if strings.Contains(strings.ToLower(strings.TrimSpace(k)), alias) {
				return k, true
			}
		}
	}
	return "", false
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// MarshalJSON emits the canonical keys plus passthrough fields as one flat
// object, matching the shape the model prompt and the stored report expect.
func (r Row) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+4)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["date"] = r.Date
	m["amount"] = r.Amount
	m["description"] = r.Description
	if r.Category != "" {
		m["category"] = r.Category
	}
	return json.Marshal(m)
}

// AbsoluteTotal sums |amount| over rows. The orchestrator embeds the rounded
// total in the prompt to anchor the model's output magnitude.
func AbsoluteTotal(rows []Row) float64 {
	var total float64
	for _, r := range rows {
		if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
			continue
		}
		total += math.Abs(r.Amount)
	}
	return total
}
