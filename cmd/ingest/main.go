// Command ingest runs the CSV pipeline locally: parse, canonicalize,
// validate and sanitize a statement file, then print what the model would
// receive. Useful for checking a bank's export format before uploading it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/finglow/finglow/internal/ingest"
	"github.com/finglow/finglow/internal/logger"
	"github.com/finglow/finglow/internal/sanitize"
)

func main() {
	log := logger.New()

	file := flag.String("file", "", "Path to the CSV statement")
	flag.Parse()

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	defer f.Close()

	raw, err := ingest.ParseCSV(f, ingest.MaxServerRows)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse CSV")
	}

	rows, err := ingest.Canonicalize(raw, ingest.MaxServerRows)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to canonicalize rows")
	}

	result := ingest.Validate(rows)
	if !result.Valid {
		log.Error().Strs("errors", result.Errors).Msg("Validation failed")
		os.Exit(1)
	}

	sanitized := sanitize.Rows(rows)
	out, err := json.MarshalIndent(sanitized, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode rows")
	}

	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "%d rows, absolute total %.2f\n", len(sanitized), ingest.AbsoluteTotal(sanitized))
}
