package ingest

import (
	"fmt"
	"math"
)

// maxValidationErrors caps how many error strings a single validation run
// reports; everything past the cap is truncated, not summarized.
const maxValidationErrors = 10

// Result is the outcome of a structural validation pass.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate enforces the minimum schema and row-count constraints before any
// expensive processing. It collects errors instead of short-circuiting:
// missing required fields are reported once each (from the first row's
// resolved columns), invalid amounts per row with 1-indexed positions, and a
// row-limit violation globally.
func Validate(rows []Row) Result {
	if len(rows) == 0 {
		return Result{Valid: false, Errors: []string{"No data provided or empty CSV"}}
	}

	var errs []string

	first := rows[0]
	if !first.HasDate {
		errs = append(errs, "Missing required field: date")
	}
	if !first.HasAmount {
		errs = append(errs, "Missing required field: amount")
	}
	if !first.HasDescription {
		errs = append(errs, "Missing required field: description")
	}

	// Per-row amount checks only make sense when an amount column resolved
	// at all; otherwise the single missing-field error covers it.
	if first.HasAmount {
		for i, row := range rows {
			if !row.HasAmount || math.IsNaN(row.Amount) || math.IsInf(row.Amount, 0) {
				errs = append(errs, fmt.Sprintf("Invalid amount in row %d", i+1))
			}
		}
	}

	if len(rows) > MaxServerRows {
		errs = append(errs, "Too many rows. Maximum allowed is 10,000 transactions.")
	}

	if len(errs) > maxValidationErrors {
		errs = errs[:maxValidationErrors]
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}
