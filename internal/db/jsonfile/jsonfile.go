// Package jsonfile persists the student record collection as a single JSON
// array on disk. Every operation loads the whole collection, mutates it in
// memory and rewrites the file in full; last writer wins and no other process
// is expected to touch the file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/ukane-philemon/srms/api"
	"github.com/ukane-philemon/srms/internal/db"
	"github.com/ukane-philemon/srms/internal/record"
)

// Check that *Store implements api.RecordDatabase.
var _ api.RecordDatabase = (*Store)(nil)

// Store implements api.RecordDatabase on top of a flat JSON file.
type Store struct {
	mtx  sync.Mutex
	path string
}

// New creates a new instance of *Store backed by the file at path. The file
// does not have to exist yet.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("missing record file path")
	}

	return &Store{path: path}, nil
}

// Records returns the full collection in insertion order.
// Implements api.RecordDatabase.
func (s *Store) Records() ([]*record.StudentRecord, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.load()
}

// AddRecord appends a new student record with its grade derived from marks.
// Returns db.ErrorDuplicateRecord if the roll number is already taken.
// Implements api.RecordDatabase.
func (s *Store) AddRecord(name, rollNo string, marks float64) (*record.StudentRecord, error) {
	rec, err := record.New(name, rollNo, marks)
	if err != nil {
		return nil, err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, existing := range records {
		if existing.RollNo == rollNo {
			return nil, fmt.Errorf("%w: a student with roll number %s already exists", db.ErrorDuplicateRecord, rollNo)
		}
	}

	err = s.save(append(records, rec))
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// UpdateMarks sets the marks of the first record matching rollNo and
// rederives its grade. Returns db.ErrorNotFound if no record matches.
// Implements api.RecordDatabase.
func (s *Store) UpdateMarks(rollNo string, marks float64) (*record.StudentRecord, error) {
	if !record.ValidMarks(marks) {
		return nil, fmt.Errorf("%w: marks %v is not between %d and %d", db.ErrorInvalidRequest, marks, record.MinMarks, record.MaxMarks)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.RollNo != rollNo {
			continue
		}

		rec.Marks = marks
		rec.Grade = record.GradeFor(marks)
		err = s.save(records)
		if err != nil {
			return nil, err
		}

		return rec, nil
	}

	return nil, fmt.Errorf("%w: no student with roll number %s", db.ErrorNotFound, rollNo)
}

// DeleteRecord removes every record matching rollNo. Returns
// db.ErrorNotFound if none matched.
// Implements api.RecordDatabase.
func (s *Store) DeleteRecord(rollNo string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	remaining := records[:0]
	for _, rec := range records {
		if rec.RollNo != rollNo {
			remaining = append(remaining, rec)
		}
	}

	if len(remaining) == len(records) {
		return fmt.Errorf("%w: no student with roll number %s", db.ErrorNotFound, rollNo)
	}

	return s.save(remaining)
}

// ImportRecords merges a parsed batch into the collection. Novel roll numbers
// are appended in batch order; rows colliding with storage or with an earlier
// row of the same batch are skipped, so duplicates within a batch resolve
// keep-first.
// Implements api.RecordDatabase.
func (s *Store) ImportRecords(batch []*record.StudentRecord) (int, int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	records, err := s.load()
	if err != nil {
		return 0, 0, err
	}

	taken := make(map[string]bool, len(records))
	for _, rec := range records {
		taken[rec.RollNo] = true
	}

	var added, skipped int
	for _, rec := range batch {
		if taken[rec.RollNo] {
			skipped++
			continue
		}

		taken[rec.RollNo] = true
		records = append(records, rec)
		added++
	}

	err = s.save(records)
	if err != nil {
		return 0, 0, err
	}

	return added, skipped, nil
}

// Reset clears the whole collection.
// Implements api.RecordDatabase.
func (s *Store) Reset() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.save(nil)
}

// Shutdown implements api.RecordDatabase. The file store holds no open
// resources.
func (s *Store) Shutdown(ctx context.Context) error {
	return nil
}

// load reads the collection from disk. A missing file is an empty
// collection. An unparseable file is also treated as empty after logging a
// diagnostic; this recovery policy is deliberate and must not surface an
// error. Records found without a grade get one derived from their marks and
// the corrected collection is persisted before load returns.
func (s *Store) load() ([]*record.StudentRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile error: %w", err)
	}

	var records []*record.StudentRecord
	err = json.Unmarshal(data, &records)
	if err != nil {
		log.Printf("record file %s is not a valid collection (%v), continuing with an empty one", s.path, err)
		return nil, nil
	}

	var backfilled bool
	for _, rec := range records {
		if rec.Grade == "" {
			rec.Grade = record.GradeFor(rec.Marks)
			backfilled = true
		}
	}

	if backfilled {
		err = s.save(records)
		if err != nil {
			return nil, err
		}
	}

	return records, nil
}

// save rewrites the whole backing file with the provided collection.
func (s *Store) save(records []*record.StudentRecord) error {
	if records == nil {
		records = []*record.StudentRecord{}
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent error: %w", err)
	}

	err = os.WriteFile(s.path, data, 0644)
	if err != nil {
		return fmt.Errorf("os.WriteFile error: %w", err)
	}

	return nil
}
