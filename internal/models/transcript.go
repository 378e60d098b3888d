package models

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicateTranscriptRecord is returned when a course already has a grade for the term.
	ErrDuplicateTranscriptRecord = errors.New("transcript record already exists")
	// ErrNegativeGrade is returned for grades below zero.
	ErrNegativeGrade = errors.New("grade must not be negative")
)

// TranscriptRecord is a single graded course within a term.
type TranscriptRecord struct {
	Term   Term    `json:"term"`
	Course Course  `json:"course"`
	Grade  float64 `json:"grade"`
}

// TranscriptRow is the flat persistence projection of a transcript record.
type TranscriptRow struct {
	ID          string  `db:"id"`
	StudentID   string  `db:"student_id"`
	TermID      string  `db:"term_id"`
	TermName    string  `db:"term_name"`
	CourseID    string  `db:"course_id"`
	CourseCode  string  `db:"course_code"`
	CourseName  string  `db:"course_name"`
	CourseUnits int     `db:"course_units"`
	Grade       float64 `db:"grade"`
}

// Record converts the row into its domain value.
func (r TranscriptRow) Record() (TranscriptRecord, error) {
	course, err := NewCourse(r.CourseID, r.CourseCode, r.CourseName, r.CourseUnits)
	if err != nil {
		return TranscriptRecord{}, fmt.Errorf("transcript record %s: %w", r.ID, err)
	}
	return TranscriptRecord{
		Term:   Term{ID: r.TermID, Name: r.TermName},
		Course: course,
		Grade:  r.Grade,
	}, nil
}

// Transcript maps term -> course -> grade. Records are only ever added.
type Transcript struct {
	terms map[string]map[string]TranscriptRecord
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{terms: make(map[string]map[string]TranscriptRecord)}
}

// Add records a grade for course in term.
func (t *Transcript) Add(course Course, term Term, grade float64) error {
	if grade < 0 {
		return fmt.Errorf("%w: %s got %.2f", ErrNegativeGrade, course.Code, grade)
	}
	if t.terms == nil {
		t.terms = make(map[string]map[string]TranscriptRecord)
	}
	courses, ok := t.terms[term.ID]
	if !ok {
		courses = make(map[string]TranscriptRecord)
		t.terms[term.ID] = courses
	}
	if _, exists := courses[course.Code]; exists {
		return fmt.Errorf("%w: %s in term %s", ErrDuplicateTranscriptRecord, course.Code, term.ID)
	}
	courses[course.Code] = TranscriptRecord{Term: term, Course: course, Grade: grade}
	return nil
}

// Len returns the number of records across all terms.
func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, courses := range t.terms {
		n += len(courses)
	}
	return n
}

// TermCount returns the number of distinct terms on record.
func (t *Transcript) TermCount() int {
	if t == nil {
		return 0
	}
	return len(t.terms)
}

// Records returns every record ordered by term ID then course code.
func (t *Transcript) Records() []TranscriptRecord {
	if t == nil {
		return nil
	}
	records := make([]TranscriptRecord, 0, t.Len())
	for _, courses := range t.terms {
		for _, rec := range courses {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Term.ID != records[j].Term.ID {
			return records[i].Term.ID < records[j].Term.ID
		}
		return records[i].Course.Code < records[j].Course.Code
	})
	return records
}

// HasPassed reports whether any record for course reaches passingGrade.
func (t *Transcript) HasPassed(course Course, passingGrade float64) bool {
	if t == nil {
		return false
	}
	for _, courses := range t.terms {
		if rec, ok := courses[course.Code]; ok && rec.Grade >= passingGrade {
			return true
		}
	}
	return false
}

// PassedCourses returns the set of course codes with a passing record.
func (t *Transcript) PassedCourses(passingGrade float64) map[string]struct{} {
	passed := make(map[string]struct{})
	if t == nil {
		return passed
	}
	for _, courses := range t.terms {
		for code, rec := range courses {
			if rec.Grade >= passingGrade {
				passed[code] = struct{}{}
			}
		}
	}
	return passed
}
