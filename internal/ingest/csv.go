package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// csvText renders each data row as "header: cell" pairs, one row per line.
func csvText(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]
	var lines []string
	for _, row := range records[1:] {
		cells := make([]string, 0, len(row))
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				cells = append(cells, headers[j]+": "+cell)
			} else {
				cells = append(cells, cell)
			}
		}
		lines = append(lines, strings.Join(cells, ", "))
	}
	if len(lines) == 0 {
		return strings.Join(headers, ", "), nil
	}
	return strings.Join(lines, "\n"), nil
}
