package record

import (
	"math"
	"sort"
)

// Summary is the dashboard view of the whole collection.
type Summary struct {
	TotalRecords int          `json:"totalRecords"`
	AverageMarks float64      `json:"averageMarks"`
	Grades       []GradeCount `json:"grades"`
}

// GradeCount is the number of records holding a grade. The Grades slice of a
// Summary is sorted by grade letter so it can be charted directly.
type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

// Summarize computes the record count, the mean of marks rounded to two
// decimal places and the per-grade distribution. Returns nil for an empty
// collection so callers can report "no data" instead of an ambiguous zero
// mean.
func Summarize(records []*StudentRecord) *Summary {
	if len(records) == 0 {
		return nil
	}

	var totalMarks float64
	gradeCounts := make(map[string]int)
	for _, rec := range records {
		totalMarks += rec.Marks
		gradeCounts[rec.Grade]++
	}

	grades := make([]GradeCount, 0, len(gradeCounts))
	for grade, count := range gradeCounts {
		grades = append(grades, GradeCount{Grade: grade, Count: count})
	}
	sort.Slice(grades, func(i, j int) bool {
		return grades[i].Grade < grades[j].Grade
	})

	return &Summary{
		TotalRecords: len(records),
		AverageMarks: math.Round(totalMarks/float64(len(records))*100) / 100,
		Grades:       grades,
	}
}
