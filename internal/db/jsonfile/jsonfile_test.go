package jsonfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ukane-philemon/srms/internal/db"
	"github.com/ukane-philemon/srms/internal/record"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "students.json"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return store
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") should fail")
	}
}

func TestRecordsMissingFile(t *testing.T) {
	store := newTestStore(t)

	records, err := store.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected an empty collection, got %d records", len(records))
	}
}

func TestAddRecordAndLoad(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.AddRecord("Alice", "R1", 95)
	if err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}
	if rec.Grade != "A" {
		t.Errorf("AddRecord derived grade %q, want A", rec.Grade)
	}

	records, err := store.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	want := &record.StudentRecord{Name: "Alice", RollNo: "R1", Marks: 95, Grade: "A"}
	if !reflect.DeepEqual(records[0], want) {
		t.Errorf("loaded record = %+v, want %+v", records[0], want)
	}
}

func TestAddRecordDuplicate(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddRecord("Alice", "R1", 95)
	if err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}

	before, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	_, err = store.AddRecord("Bob", "R1", 70)
	if !errors.Is(err, db.ErrorDuplicateRecord) {
		t.Fatalf("duplicate AddRecord error = %v, want ErrorDuplicateRecord", err)
	}

	after, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(before) != string(after) {
		t.Error("rejected add mutated the backing file")
	}

	records, _ := store.Records()
	if len(records) != 1 {
		t.Errorf("Expected exactly 1 record, got %d", len(records))
	}
}

func TestAddRecordValidation(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name   string
		rollNo string
		marks  float64
	}{
		{"", "R1", 50},
		{"Alice", "", 50},
		{"Alice", "R1", 101},
		{"Alice", "R1", -0.5},
	}

	for _, tt := range tests {
		_, err := store.AddRecord(tt.name, tt.rollNo, tt.marks)
		if !errors.Is(err, db.ErrorInvalidRequest) {
			t.Errorf("AddRecord(%q, %q, %v) error = %v, want ErrorInvalidRequest", tt.name, tt.rollNo, tt.marks, err)
		}
	}

	if _, err := os.Stat(store.path); !errors.Is(err, os.ErrNotExist) {
		t.Error("rejected adds should not create the backing file")
	}
}

func TestLoadIdempotent(t *testing.T) {
	store := newTestStore(t)

	store.AddRecord("Alice", "R1", 95)
	store.AddRecord("Bob", "R2", 72)

	first, err := store.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	second, err := store.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive loads differ: %+v vs %+v", first, second)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	store.AddRecord("Alice", "R1", 95)
	store.AddRecord("Bob", "R2", 72)

	before, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	records, err := store.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if err := store.save(records); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	after, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(before) != string(after) {
		t.Error("save(load()) changed the backing file")
	}
}

func TestLoadBackfillsGrades(t *testing.T) {
	store := newTestStore(t)

	// A collection persisted by an older version, before grades existed.
	legacy := `[
    {"name": "Alice", "roll_no": "R1", "marks": 95},
    {"name": "Bob", "roll_no": "R2", "marks": 72, "grade": "C"},
    {"name": "Carol", "roll_no": "R3", "marks": 58}
]`
	if err := os.WriteFile(store.path, []byte(legacy), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	records, err := store.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}

	wantGrades := []string{"A", "C", "F"}
	for i, rec := range records {
		if rec.Grade != wantGrades[i] {
			t.Errorf("record %d grade = %q, want %q", i, rec.Grade, wantGrades[i])
		}
	}

	// The correction must be persisted, so a direct re-read sees grades.
	data, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	for _, grade := range []string{`"grade": "A"`, `"grade": "F"`} {
		if !strings.Contains(string(data), grade) {
			t.Errorf("backfilled file is missing %s:\n%s", grade, data)
		}
	}
}

func TestLoadCorruptFile(t *testing.T) {
	store := newTestStore(t)

	if err := os.WriteFile(store.path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	records, err := store.Records()
	if err != nil {
		t.Fatalf("Records on a corrupt file should recover, got: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected an empty collection, got %d records", len(records))
	}

	// Recovery is lazy; the corrupt file is only replaced by the next write.
	if _, err := store.AddRecord("Alice", "R1", 95); err != nil {
		t.Fatalf("AddRecord after corrupt load failed: %v", err)
	}
	records, _ = store.Records()
	if len(records) != 1 {
		t.Errorf("Expected 1 record after recovery write, got %d", len(records))
	}
}

func TestUpdateMarks(t *testing.T) {
	store := newTestStore(t)

	store.AddRecord("Alice", "R1", 95)

	rec, err := store.UpdateMarks("R1", 65)
	if err != nil {
		t.Fatalf("UpdateMarks failed: %v", err)
	}
	if rec.Marks != 65 || rec.Grade != "D" {
		t.Errorf("updated record = %+v, want marks 65 grade D", rec)
	}

	records, _ := store.Records()
	if records[0].Marks != 65 || records[0].Grade != "D" {
		t.Errorf("persisted record = %+v, want marks 65 grade D", records[0])
	}
}

func TestUpdateMarksValidation(t *testing.T) {
	store := newTestStore(t)

	store.AddRecord("Alice", "R1", 95)

	_, err := store.UpdateMarks("R1", 105)
	if !errors.Is(err, db.ErrorInvalidRequest) {
		t.Fatalf("UpdateMarks(105) error = %v, want ErrorInvalidRequest", err)
	}

	records, _ := store.Records()
	if records[0].Marks != 95 {
		t.Errorf("rejected update changed stored marks to %v", records[0].Marks)
	}
}

func TestUpdateMarksNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpdateMarks("R9", 50)
	if !errors.Is(err, db.ErrorNotFound) {
		t.Errorf("UpdateMarks on absent roll number error = %v, want ErrorNotFound", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	store := newTestStore(t)

	store.AddRecord("Alice", "R1", 95)
	store.AddRecord("Bob", "R2", 72)

	err := store.DeleteRecord("R9")
	if !errors.Is(err, db.ErrorNotFound) {
		t.Fatalf("DeleteRecord on absent roll number error = %v, want ErrorNotFound", err)
	}
	records, _ := store.Records()
	if len(records) != 2 {
		t.Fatalf("failed delete changed the collection, got %d records", len(records))
	}

	err = store.DeleteRecord("R1")
	if err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	records, _ = store.Records()
	if len(records) != 1 || records[0].RollNo != "R2" {
		t.Errorf("Expected only R2 to remain, got %+v", records)
	}
}

func TestImportRecords(t *testing.T) {
	store := newTestStore(t)

	store.AddRecord("Alice", "R1", 95)

	batch := []*record.StudentRecord{
		{Name: "Bob", RollNo: "R2", Marks: 72, Grade: "C"},
		{Name: "Eve", RollNo: "R1", Marks: 30, Grade: "F"}, // collides with storage
		{Name: "Carol", RollNo: "R3", Marks: 58, Grade: "F"},
	}

	added, skipped, err := store.ImportRecords(batch)
	if err != nil {
		t.Fatalf("ImportRecords failed: %v", err)
	}
	if added != 2 || skipped != 1 {
		t.Errorf("added = %d, skipped = %d, want 2 and 1", added, skipped)
	}

	records, _ := store.Records()
	wantRolls := []string{"R1", "R2", "R3"}
	if len(records) != len(wantRolls) {
		t.Fatalf("Expected %d records, got %d", len(wantRolls), len(records))
	}
	for i, rollNo := range wantRolls {
		if records[i].RollNo != rollNo {
			t.Errorf("record %d roll number = %s, want %s", i, records[i].RollNo, rollNo)
		}
	}
}

func TestImportRecordsWithinBatchDuplicates(t *testing.T) {
	store := newTestStore(t)

	// Two batch rows share R2; keep-first wins and the later one counts as
	// skipped.
	batch := []*record.StudentRecord{
		{Name: "C", RollNo: "R2", Marks: 55, Grade: "F"},
		{Name: "D", RollNo: "R2", Marks: 60, Grade: "D"},
	}

	added, skipped, err := store.ImportRecords(batch)
	if err != nil {
		t.Fatalf("ImportRecords failed: %v", err)
	}
	if added != 1 || skipped != 1 {
		t.Errorf("added = %d, skipped = %d, want 1 and 1", added, skipped)
	}

	records, _ := store.Records()
	if len(records) != 1 || records[0].Name != "C" || records[0].Marks != 55 {
		t.Errorf("Expected only the first R2 row, got %+v", records)
	}
}

func TestReset(t *testing.T) {
	store := newTestStore(t)

	store.AddRecord("Alice", "R1", 95)
	if err := store.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	records, err := store.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected an empty collection after reset, got %d records", len(records))
	}
}

func TestUniquenessAfterMixedOperations(t *testing.T) {
	store := newTestStore(t)

	store.AddRecord("Alice", "R1", 95)
	store.AddRecord("Bob", "R2", 72)
	store.ImportRecords([]*record.StudentRecord{
		{Name: "Eve", RollNo: "R1", Marks: 10, Grade: "F"},
		{Name: "Carol", RollNo: "R3", Marks: 58, Grade: "F"},
		{Name: "Dan", RollNo: "R3", Marks: 60, Grade: "D"},
	})
	store.AddRecord("Frank", "R2", 80)

	records, err := store.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, rec := range records {
		if seen[rec.RollNo] {
			t.Errorf("roll number %s appears more than once", rec.RollNo)
		}
		seen[rec.RollNo] = true
	}
}
