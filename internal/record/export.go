package record

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// ExportCSV serializes the collection as comma-delimited text, a header row
// followed by one row per record in collection order. An empty collection
// produces an empty byte slice so callers can skip offering a download.
func ExportCSV(records []*StudentRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	rows := [][]string{{nameColumn, rollNoColumn, marksColumn, "grade"}}
	for _, rec := range records {
		rows = append(rows, []string{rec.Name, rec.RollNo, strconv.FormatFloat(rec.Marks, 'f', -1, 64), rec.Grade})
	}

	err := writer.WriteAll(rows)
	if err != nil {
		return nil, fmt.Errorf("csv.Writer.WriteAll error: %w", err)
	}

	return buf.Bytes(), nil
}
