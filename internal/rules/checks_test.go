package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/models"
)

func requireViolation(t *testing.T, err error, reason Reason) *Violation {
	t.Helper()
	require.Error(t, err)
	v, ok := AsViolation(err)
	require.True(t, ok, "expected a rule violation, got %v", err)
	assert.Equal(t, reason, v.Reason)
	return v
}

func TestCheckAlreadyPassed(t *testing.T) {
	passed := NewPassedSet(transcriptOf(rec(termFall, math1, 16), rec(termFall, phys1, 8)), 10)

	err := CheckAlreadyPassed(FromOfferings([]models.Offering{offer(math1, 1, 1)}), passed)
	v := requireViolation(t, err, ReasonAlreadyPassed)
	assert.Equal(t, "the student has already passed Math 1", v.Message)
	assert.Equal(t, []string{"MATH1"}, v.Courses)

	// failed courses can be retaken
	assert.NoError(t, CheckAlreadyPassed(FromOfferings([]models.Offering{offer(phys1, 1, 1)}), passed))
}

func TestCheckAlreadyPassedRetakeAfterFailingEarlierTerm(t *testing.T) {
	passed := NewPassedSet(transcriptOf(rec(termFall, math1, 6), rec(termSpring, math1, 14)), 10)

	err := CheckAlreadyPassed(FromOfferings([]models.Offering{offer(math1, 1, 1)}), passed)
	requireViolation(t, err, ReasonAlreadyPassed)
}

func TestCheckPrerequisites(t *testing.T) {
	passed := NewPassedSet(transcriptOf(rec(termFall, math1, 16)), 10)

	assert.NoError(t, CheckPrerequisites(FromOfferings([]models.Offering{offer(math2, 1, 1)}), passed))

	err := CheckPrerequisites(FromOfferings([]models.Offering{offer(math2, 1, 1), offer(phys2, 1, 2)}), passed)
	v := requireViolation(t, err, ReasonMissingPrerequisite)
	assert.Equal(t, "the student has not passed Physics 1 as a prerequisite of Physics 2", v.Message)
	assert.Equal(t, []string{"PHYS1", "PHYS2"}, v.Courses)
}

func TestCheckPrerequisitesFailedGradeDoesNotCount(t *testing.T) {
	passed := NewPassedSet(transcriptOf(rec(termFall, prog, 9.99)), 10)

	err := CheckPrerequisites(FromOfferings([]models.Offering{offer(ap, 1, 1)}), passed)
	requireViolation(t, err, ReasonMissingPrerequisite)
}

func TestCheckExamConflicts(t *testing.T) {
	a := offer(phys1, 1, 1)
	b := offer(math1, 1, 2)
	c := offer(prog, 1, 1)

	assert.NoError(t, CheckExamConflicts(FromOfferings([]models.Offering{a, b})))

	err := CheckExamConflicts(FromOfferings([]models.Offering{a, b, c}))
	v := requireViolation(t, err, ReasonExamConflict)
	assert.Equal(t, "two offerings Physics 1 - 1 and Programming - 1 have the same exam time", v.Message)

	// swapping the pair keeps the verdict
	err = CheckExamConflicts(FromOfferings([]models.Offering{c, b, a}))
	requireViolation(t, err, ReasonExamConflict)
}

func TestCheckExamConflictsSingleOfferingNeverConflictsWithItself(t *testing.T) {
	assert.NoError(t, CheckExamConflicts(FromOfferings([]models.Offering{offer(math1, 1, 1)})))
	assert.NoError(t, CheckExamConflicts(nil))
}

func TestCheckDuplicateCourses(t *testing.T) {
	assert.NoError(t, CheckDuplicateCourses(FromOfferings([]models.Offering{offer(math1, 1, 1), offer(phys1, 1, 2)})))

	err := CheckDuplicateCourses(FromOfferings([]models.Offering{offer(math1, 1, 1), offer(phys1, 1, 2), offer(math1, 2, 3)}))
	v := requireViolation(t, err, ReasonDuplicateCourse)
	assert.Equal(t, "Math 1 is requested to be taken twice", v.Message)
}

func TestCheckUnitLoadBoundaries(t *testing.T) {
	policy := DefaultPolicy()
	cases := []struct {
		name    string
		gpa     float64
		units   int
		allowed bool
	}{
		{"below 12 over 14", 11.9, 15, false},
		{"below 12 at 14", 11.9, 14, true},
		{"12 at 14", 12.0, 14, true},
		{"12 at 16", 12.0, 16, true},
		{"12 at 17", 12.0, 17, false},
		{"16 at 16", 16.0, 16, true},
		{"16 at 20", 16.0, 20, true},
		{"top gpa at 21", 20.0, 21, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cands := FromOfferings([]models.Offering{offer(unitCourse("X", tc.units), 1, 1)})
			err := CheckUnitLoad(cands, Standing{GPA: tc.gpa, Defined: true}, policy)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			requireViolation(t, err, ReasonUnitOverload)
		})
	}
}

func TestCheckUnitLoadWithoutGPA(t *testing.T) {
	policy := DefaultPolicy()
	cands := FromOfferings([]models.Offering{offer(unitCourse("X", 15), 1, 1)})

	err := CheckUnitLoad(cands, Standing{}, policy)
	v := requireViolation(t, err, ReasonUnitOverload)
	assert.Contains(t, v.Message, "without GPA")

	cands = FromOfferings([]models.Offering{offer(unitCourse("X", 14), 1, 1)})
	assert.NoError(t, CheckUnitLoad(cands, Standing{}, policy))
}

func TestCheckUnitLoadMessage(t *testing.T) {
	cands := FromOfferings([]models.Offering{offer(unitCourse("X", 15), 1, 1)})
	err := CheckUnitLoad(cands, Standing{GPA: 11.5, Defined: true}, DefaultPolicy())
	assert.EqualError(t, err, "number of units (15) requested does not match GPA of 11.50")
}

func TestChecksAreIdempotent(t *testing.T) {
	passed := NewPassedSet(transcriptOf(rec(termFall, math1, 16)), 10)
	cands := FromOfferings([]models.Offering{offer(math1, 1, 1), offer(phys2, 1, 1)})

	first := CheckAlreadyPassed(cands, passed)
	second := CheckAlreadyPassed(cands, passed)
	assert.Equal(t, first, second)

	first = CheckExamConflicts(cands)
	second = CheckExamConflicts(cands)
	assert.Equal(t, first, second)
	assert.Len(t, passed, 1)
}

func TestRegistrationAdapterMatchesOffering(t *testing.T) {
	o := offer(math1, 2, 4)
	student := models.NewStudent("s1", "Ali")
	student.TakeCourse(o)

	reg := FromRegistration(student.CurrentTerm[0])
	assert.True(t, reg.CourseOf().SameAs(o.CourseOf()))
	assert.True(t, reg.ExamSlot().Equal(o.ExamSlot()))
	assert.Equal(t, o.SectionNumber(), reg.SectionNumber())

	err := CheckDuplicateCourses([]Candidate{o, reg})
	requireViolation(t, err, ReasonDuplicateCourse)
}
