package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCSV reads delimited text into raw rows using the first record as the
// header. Missing canonical columns are not an error, only unreadable or
// malformed input is. Reading stops with a count-specific error once maxRows
// data rows have been exceeded.
func ParseCSV(r io.Reader, maxRows int) ([]RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingest.ParseCSV: reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []RawRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest.ParseCSV: line %d: %w", line, err)
		}
		if isEmptyRecord(record) {
			continue
		}
		if len(rows) >= maxRows {
			return nil, fmt.Errorf("ingest.ParseCSV: more than %d data rows", maxRows)
		}

		row := make(RawRow, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(record) {
				row[h] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
