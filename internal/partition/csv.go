package partition

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
)

// parseCSV treats the whole file as one table.
func parseCSV(_ context.Context, path string) ([]element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	table := renderRows(records)
	if table == "" {
		return nil, nil
	}
	return []element{{kind: elemTable, text: table}}, nil
}
