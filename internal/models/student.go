package models

import "time"

// Student owns a transcript and the registrations of the current enrollment session.
type Student struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"full_name" json:"name"`
	Transcript  *Transcript    `db:"-" json:"-"`
	CurrentTerm []Registration `db:"-" json:"current_term"`
}

// NewStudent builds a student with an empty transcript.
func NewStudent(id, name string) *Student {
	return &Student{ID: id, Name: name, Transcript: NewTranscript()}
}

// AddTranscriptRecord appends a graded course to the transcript.
func (s *Student) AddTranscriptRecord(course Course, term Term, grade float64) error {
	if s.Transcript == nil {
		s.Transcript = NewTranscript()
	}
	return s.Transcript.Add(course, term, grade)
}

// TakeCourse registers the offering in the current term.
func (s *Student) TakeCourse(o Offering) {
	s.CurrentTerm = append(s.CurrentTerm, Registration{
		StudentID:  s.ID,
		OfferingID: o.ID,
		TermID:     o.TermID,
		Course:     o.Course,
		Section:    o.Section,
		ExamTime:   o.ExamTime,
	})
}

func (s *Student) String() string {
	return s.Name
}

// StudentRecord is the persisted student row.
type StudentRecord struct {
	ID        string    `db:"id" json:"id"`
	NIS       string    `db:"nis" json:"nis"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
