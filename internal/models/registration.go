package models

import (
	"fmt"
	"time"
)

// Registration is one (course, section) entry of a student's current term.
type Registration struct {
	ID         string    `json:"id,omitempty"`
	StudentID  string    `json:"student_id"`
	OfferingID string    `json:"offering_id"`
	TermID     string    `json:"term_id"`
	Course     Course    `json:"course"`
	Section    int       `json:"section"`
	ExamTime   time.Time `json:"exam_time"`
	CreatedAt  time.Time `json:"created_at"`
}

// RegistrationRow is the persisted projection of a registration.
type RegistrationRow struct {
	ID          string    `db:"id"`
	StudentID   string    `db:"student_id"`
	OfferingID  string    `db:"offering_id"`
	TermID      string    `db:"term_id"`
	Section     int       `db:"section"`
	ExamTime    time.Time `db:"exam_time"`
	CourseID    string    `db:"course_id"`
	CourseCode  string    `db:"course_code"`
	CourseName  string    `db:"course_name"`
	CourseUnits int       `db:"course_units"`
	CreatedAt   time.Time `db:"created_at"`
}

// Registration converts the row into its domain value.
func (r RegistrationRow) Registration() (Registration, error) {
	course, err := NewCourse(r.CourseID, r.CourseCode, r.CourseName, r.CourseUnits)
	if err != nil {
		return Registration{}, fmt.Errorf("registration %s: %w", r.ID, err)
	}
	return Registration{
		ID:         r.ID,
		StudentID:  r.StudentID,
		OfferingID: r.OfferingID,
		TermID:     r.TermID,
		Section:    r.Section,
		ExamTime:   r.ExamTime,
		CreatedAt:  r.CreatedAt,
		Course:     course,
	}, nil
}
