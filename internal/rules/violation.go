package rules

import (
	"errors"
	"fmt"
)

// Reason classifies a rule violation.
type Reason string

// Violation reasons, one per check.
const (
	ReasonAlreadyPassed       Reason = "ALREADY_PASSED"
	ReasonMissingPrerequisite Reason = "MISSING_PREREQUISITE"
	ReasonExamConflict        Reason = "EXAM_CONFLICT"
	ReasonDuplicateCourse     Reason = "DUPLICATE_COURSE"
	ReasonUnitOverload        Reason = "UNIT_OVERLOAD"
)

// Violation is returned by a failing check. Courses lists the offending course codes.
type Violation struct {
	Reason  Reason   `json:"reason"`
	Message string   `json:"message"`
	Courses []string `json:"courses,omitempty"`
}

func (v *Violation) Error() string {
	return v.Message
}

func violationf(reason Reason, courses []string, format string, args ...interface{}) *Violation {
	return &Violation{Reason: reason, Message: fmt.Sprintf(format, args...), Courses: courses}
}

// AsViolation extracts a Violation from err.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
