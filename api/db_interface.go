package api

import (
	"context"

	"github.com/ukane-philemon/srms/internal/record"
)

// RecordDatabase is the storage contract for the student record collection.
// Implementations must keep roll numbers unique and every record's grade
// consistent with its marks after each operation completes.
type RecordDatabase interface {
	// Records returns the full collection in insertion order.
	Records() ([]*record.StudentRecord, error)
	// AddRecord appends a new record with its grade derived from marks.
	// Returns db.ErrorInvalidRequest for out-of-domain values and
	// db.ErrorDuplicateRecord if the roll number is already taken; storage is
	// left unchanged in both cases.
	AddRecord(name, rollNo string, marks float64) (*record.StudentRecord, error)
	// UpdateMarks sets the marks of the record matching rollNo and rederives
	// its grade. Returns db.ErrorInvalidRequest for out-of-range marks and
	// db.ErrorNotFound if no record matches.
	UpdateMarks(rollNo string, marks float64) (*record.StudentRecord, error)
	// DeleteRecord removes every record matching rollNo. Returns
	// db.ErrorNotFound if none matched.
	DeleteRecord(rollNo string) error
	// ImportRecords merges a parsed batch into the collection. Novel roll
	// numbers are appended in batch order; rows colliding with storage or
	// with an earlier row of the same batch are skipped.
	ImportRecords(records []*record.StudentRecord) (added int, skipped int, err error)
	// Reset clears the whole collection.
	Reset() error
	// Shutdown gracefully disconnects the store after the server is
	// shutdown.
	Shutdown(ctx context.Context) error
}
