package rules

import (
	"github.com/noah-isme/enrollment-api/internal/models"
)

// PassedSet holds the codes of courses a student has passed.
type PassedSet map[string]struct{}

// NewPassedSet builds the passed set from a transcript.
func NewPassedSet(t *models.Transcript, passingGrade float64) PassedSet {
	return PassedSet(t.PassedCourses(passingGrade))
}

// Has reports whether course was passed.
func (p PassedSet) Has(course models.Course) bool {
	_, ok := p[course.Code]
	return ok
}

// CheckAlreadyPassed rejects candidates whose course was already passed.
func CheckAlreadyPassed(cands []Candidate, passed PassedSet) error {
	for _, c := range cands {
		course := c.CourseOf()
		if passed.Has(course) {
			return violationf(ReasonAlreadyPassed, []string{course.Code},
				"the student has already passed %s", course)
		}
	}
	return nil
}

// CheckPrerequisites rejects candidates with an unpassed prerequisite.
func CheckPrerequisites(cands []Candidate, passed PassedSet) error {
	for _, c := range cands {
		course := c.CourseOf()
		for _, pre := range course.Prerequisites {
			if !passed.Has(pre) {
				return violationf(ReasonMissingPrerequisite, []string{pre.Code, course.Code},
					"the student has not passed %s as a prerequisite of %s", pre, course)
			}
		}
	}
	return nil
}

// CheckExamConflicts rejects the first pair of candidates sharing an exam slot.
func CheckExamConflicts(cands []Candidate) error {
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			if examConflict(cands[i], cands[j]) {
				return examViolation(cands[i], cands[j])
			}
		}
	}
	return nil
}

// CheckDuplicateCourses rejects the first course requested more than once.
func CheckDuplicateCourses(cands []Candidate) error {
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			if sameCourse(cands[i], cands[j]) {
				course := cands[i].CourseOf()
				return violationf(ReasonDuplicateCourse, []string{course.Code},
					"%s is requested to be taken twice", course)
			}
		}
	}
	return nil
}

// CheckUnitLoad rejects a candidate set whose units exceed the cap for the standing.
func CheckUnitLoad(cands []Candidate, standing Standing, policy Policy) error {
	return checkUnitLoad(TotalUnits(cands), standing, policy)
}

// TotalUnits sums the units of every candidate.
func TotalUnits(cands []Candidate) int {
	total := 0
	for _, c := range cands {
		total += c.CourseOf().Units
	}
	return total
}

func checkUnitLoad(units int, standing Standing, policy Policy) error {
	limit := policy.UnitCap(standing)
	if units <= limit {
		return nil
	}
	if !standing.Defined {
		return violationf(ReasonUnitOverload, nil,
			"number of units (%d) requested exceeds the limit of %d for a student without GPA", units, limit)
	}
	return violationf(ReasonUnitOverload, nil,
		"number of units (%d) requested does not match GPA of %.2f", units, standing.GPA)
}

func checkRegisteredExamConflicts(registered, cands []Candidate) error {
	for _, c := range cands {
		for _, r := range registered {
			if examConflict(c, r) {
				return examViolation(r, c)
			}
		}
	}
	return nil
}

func checkRegisteredDuplicates(registered, cands []Candidate) error {
	for _, c := range cands {
		for _, r := range registered {
			if sameCourse(c, r) {
				course := c.CourseOf()
				return violationf(ReasonDuplicateCourse, []string{course.Code},
					"%s is already registered in the current term", course)
			}
		}
	}
	return nil
}

func examViolation(a, b Candidate) *Violation {
	return violationf(ReasonExamConflict, []string{a.CourseOf().Code, b.CourseOf().Code},
		"two offerings %s and %s have the same exam time", describe(a), describe(b))
}
