package record

import (
	"fmt"

	"github.com/ukane-philemon/srms/internal/db"
)

// MinMarks and MaxMarks bound the marks a student can score.
const (
	MinMarks = 0
	MaxMarks = 100
)

// StudentRecord is a single student entry. RollNo is the primary key and must
// be unique across the whole collection. Grade is always derived from Marks
// and is never set directly by callers.
type StudentRecord struct {
	Name   string  `json:"name" bson:"name"`
	RollNo string  `json:"roll_no" bson:"roll_no"`
	Marks  float64 `json:"marks" bson:"marks"`
	Grade  string  `json:"grade" bson:"grade"`
}

// New creates a new student record with its grade derived from marks. Returns
// db.ErrorInvalidRequest if any field is outside its allowed domain.
func New(name, rollNo string, marks float64) (*StudentRecord, error) {
	if name == "" || rollNo == "" {
		return nil, fmt.Errorf("%w: missing student name or roll number", db.ErrorInvalidRequest)
	}

	if !ValidMarks(marks) {
		return nil, fmt.Errorf("%w: marks %v is not between %d and %d", db.ErrorInvalidRequest, marks, MinMarks, MaxMarks)
	}

	return &StudentRecord{
		Name:   name,
		RollNo: rollNo,
		Marks:  marks,
		Grade:  GradeFor(marks),
	}, nil
}

// ValidMarks checks that marks is within the allowed range.
func ValidMarks(marks float64) bool {
	return marks >= MinMarks && marks <= MaxMarks
}

// GradeFor maps marks to a letter grade. The lower bound of each band is
// inclusive.
func GradeFor(marks float64) string {
	switch {
	case marks >= 90:
		return "A"
	case marks >= 80:
		return "B"
	case marks >= 70:
		return "C"
	case marks >= 60:
		return "D"
	default:
		return "F"
	}
}
