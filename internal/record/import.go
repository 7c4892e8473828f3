package record

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ukane-philemon/srms/internal/db"
	"github.com/xuri/excelize/v2"
)

// Column names required in an uploaded file. Matching is exact and
// case-sensitive.
const (
	nameColumn   = "name"
	rollNoColumn = "roll_no"
	marksColumn  = "marks"
)

// ParseUpload parses an uploaded tabular file into student records. Files
// ending in .xlsx are read as spreadsheets, everything else as CSV. Returns
// db.ErrorBadFile if the data cannot be read as tabular rows and
// db.ErrorBadSchema if the header row does not contain the name, roll_no and
// marks columns.
//
// Rows with an empty required cell are dropped, as are rows whose marks cannot
// be coerced to a number. Surviving rows keep their input order and carry a
// grade derived from their marks. Duplicate roll numbers within the file are
// not resolved here; the store merge keeps the first occurrence.
func ParseUpload(filename string, data []byte) ([]*StudentRecord, error) {
	var rows [][]string
	var err error
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		rows, err = spreadsheetRows(data)
	} else {
		rows, err = csvRows(data)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file has no header row", db.ErrorBadFile)
	}

	nameCol, rollNoCol, marksCol := -1, -1, -1
	for i, header := range rows[0] {
		switch strings.TrimSpace(header) {
		case nameColumn:
			nameCol = i
		case rollNoColumn:
			rollNoCol = i
		case marksColumn:
			marksCol = i
		}
	}

	if nameCol == -1 || rollNoCol == -1 || marksCol == -1 {
		return nil, fmt.Errorf("%w: file must contain %q, %q and %q columns", db.ErrorBadSchema, nameColumn, rollNoColumn, marksColumn)
	}

	var records []*StudentRecord
	for _, row := range rows[1:] {
		name := cellAt(row, nameCol)
		rollNo := cellAt(row, rollNoCol)
		marksCell := cellAt(row, marksCol)
		if name == "" || rollNo == "" || marksCell == "" {
			continue
		}

		marks, err := strconv.ParseFloat(marksCell, 64)
		if err != nil {
			continue
		}

		records = append(records, &StudentRecord{
			Name:   name,
			RollNo: rollNo,
			Marks:  marks,
			Grade:  GradeFor(marks),
		})
	}

	return records, nil
}

// csvRows reads comma-delimited data into rows. Rows may have a varying
// number of fields; the caller indexes them defensively.
func csvRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", db.ErrorBadFile, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// spreadsheetRows reads the first sheet of an xlsx workbook into rows.
func spreadsheetRows(data []byte) ([][]string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", db.ErrorBadFile, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", db.ErrorBadFile)
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", db.ErrorBadFile, err)
	}

	return rows, nil
}

func cellAt(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
