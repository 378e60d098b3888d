package rules

import (
	"fmt"
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// Candidate is the minimal view of an offering the checks need.
// Two candidates are the same course when their courses are SameAs each other.
type Candidate interface {
	CourseOf() models.Course
	ExamSlot() time.Time
	SectionNumber() int
}

// FromOfferings adapts catalog offerings into candidates.
func FromOfferings(offerings []models.Offering) []Candidate {
	cands := make([]Candidate, len(offerings))
	for i, o := range offerings {
		cands[i] = o
	}
	return cands
}

type registrationCandidate struct {
	reg models.Registration
}

func (r registrationCandidate) CourseOf() models.Course { return r.reg.Course }
func (r registrationCandidate) ExamSlot() time.Time     { return r.reg.ExamTime }
func (r registrationCandidate) SectionNumber() int      { return r.reg.Section }

// FromRegistration adapts a current-term registration into a candidate.
func FromRegistration(reg models.Registration) Candidate {
	return registrationCandidate{reg: reg}
}

// FromRegistrations adapts every registration.
func FromRegistrations(regs []models.Registration) []Candidate {
	cands := make([]Candidate, len(regs))
	for i, r := range regs {
		cands[i] = FromRegistration(r)
	}
	return cands
}

func describe(c Candidate) string {
	return fmt.Sprintf("%s - %d", c.CourseOf().String(), c.SectionNumber())
}

func sameCourse(a, b Candidate) bool {
	return a.CourseOf().SameAs(b.CourseOf())
}

func examConflict(a, b Candidate) bool {
	return a.ExamSlot().Equal(b.ExamSlot())
}
