package rules

import (
	"errors"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// ErrUndefinedGPA is returned when the transcript carries no graded units.
var ErrUndefinedGPA = errors.New("gpa undefined: transcript has no graded units")

// GPA is a unit-weighted grade average.
type GPA struct {
	Value  float64
	Points float64
	Units  int
}

// ComputeGPA folds every (term, course, grade) record across all terms.
func ComputeGPA(t *models.Transcript) (GPA, error) {
	var gpa GPA
	for _, rec := range t.Records() {
		gpa.Points += rec.Grade * float64(rec.Course.Units)
		gpa.Units += rec.Course.Units
	}
	if gpa.Units <= 0 {
		return GPA{}, ErrUndefinedGPA
	}
	gpa.Value = gpa.Points / float64(gpa.Units)
	return gpa, nil
}

// Standing is the GPA figure read by the unit-load check.
type Standing struct {
	GPA     float64
	Defined bool
}

// StandingOf derives the standing of a transcript. An empty transcript yields an undefined standing.
func StandingOf(t *models.Transcript) Standing {
	gpa, err := ComputeGPA(t)
	if err != nil {
		return Standing{}
	}
	return Standing{GPA: gpa.Value, Defined: true}
}
