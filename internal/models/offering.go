package models

import (
	"fmt"
	"time"
)

// Offering is a scheduled section of a course within a term.
type Offering struct {
	ID       string    `json:"id"`
	TermID   string    `json:"term_id"`
	Course   Course    `json:"course"`
	Section  int       `json:"section"`
	ExamTime time.Time `json:"exam_time"`
}

// OfferingRow is the flat projection of an offering joined with its course.
type OfferingRow struct {
	ID          string    `db:"id"`
	TermID      string    `db:"term_id"`
	Section     int       `db:"section"`
	ExamTime    time.Time `db:"exam_time"`
	CourseID    string    `db:"course_id"`
	CourseCode  string    `db:"course_code"`
	CourseName  string    `db:"course_name"`
	CourseUnits int       `db:"course_units"`
}

// Offering converts the row into its domain value without prerequisites.
func (r OfferingRow) Offering() (Offering, error) {
	course, err := NewCourse(r.CourseID, r.CourseCode, r.CourseName, r.CourseUnits)
	if err != nil {
		return Offering{}, fmt.Errorf("offering %s: %w", r.ID, err)
	}
	return Offering{
		ID:       r.ID,
		TermID:   r.TermID,
		Section:  r.Section,
		ExamTime: r.ExamTime,
		Course:   course,
	}, nil
}

// CourseOf returns the offered course.
func (o Offering) CourseOf() Course { return o.Course }

// ExamSlot returns the exam time of the offering.
func (o Offering) ExamSlot() time.Time { return o.ExamTime }

// SectionNumber returns the section number.
func (o Offering) SectionNumber() int { return o.Section }

func (o Offering) String() string {
	return fmt.Sprintf("%s - %d", o.Course.String(), o.Section)
}
