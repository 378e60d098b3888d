package rules

import (
	"github.com/noah-isme/enrollment-api/internal/models"
)

// Check names in evaluation order.
const (
	CheckNameAlreadyPassed   = "already_passed"
	CheckNamePrerequisites   = "prerequisites"
	CheckNameExamConflict    = "exam_conflict"
	CheckNameDuplicateCourse = "duplicate_course"
	CheckNameUnitLoad        = "unit_load"
)

// Input is everything the checks read for a single request.
type Input struct {
	Candidates []Candidate
	Registered []Candidate
	Passed     PassedSet
	Standing   Standing
}

type step struct {
	name string
	run  func(Policy, Input) error
}

var steps = []step{
	{CheckNameAlreadyPassed, func(_ Policy, in Input) error {
		return CheckAlreadyPassed(in.Candidates, in.Passed)
	}},
	{CheckNamePrerequisites, func(_ Policy, in Input) error {
		return CheckPrerequisites(in.Candidates, in.Passed)
	}},
	{CheckNameExamConflict, func(_ Policy, in Input) error {
		if err := CheckExamConflicts(in.Candidates); err != nil {
			return err
		}
		return checkRegisteredExamConflicts(in.Registered, in.Candidates)
	}},
	{CheckNameDuplicateCourse, func(_ Policy, in Input) error {
		if err := CheckDuplicateCourses(in.Candidates); err != nil {
			return err
		}
		return checkRegisteredDuplicates(in.Registered, in.Candidates)
	}},
	{CheckNameUnitLoad, func(p Policy, in Input) error {
		return checkUnitLoad(TotalUnits(in.Candidates)+TotalUnits(in.Registered), in.Standing, p)
	}},
}

// Verdict is the result of one check.
type Verdict struct {
	Check string
	Err   error
}

// Engine runs the enrollment checks in a fixed order.
type Engine struct {
	policy Policy
}

// NewEngine constructs an Engine. Missing policy values fall back to DefaultPolicy.
func NewEngine(policy Policy) *Engine {
	def := DefaultPolicy()
	if policy.MaxUnits <= 0 {
		policy.MaxUnits = def.MaxUnits
	}
	if policy.Tiers == nil {
		policy.Tiers = def.Tiers
	}
	return &Engine{policy: policy}
}

// Policy returns the engine policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Prepare builds the check input from a transcript, the current-term registrations and the candidates.
// Registrations are ignored unless the policy includes the current term.
func (e *Engine) Prepare(t *models.Transcript, current []models.Registration, cands []Candidate) Input {
	in := Input{
		Candidates: cands,
		Passed:     NewPassedSet(t, e.policy.PassingGrade),
		Standing:   StandingOf(t),
	}
	if e.policy.IncludeCurrentTerm {
		in.Registered = FromRegistrations(current)
	}
	return in
}

// Validate runs the checks and returns the first violation.
func (e *Engine) Validate(t *models.Transcript, current []models.Registration, cands []Candidate) error {
	in := e.Prepare(t, current, cands)
	for _, s := range steps {
		if err := s.run(e.policy, in); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate runs every check without stopping and returns all verdicts in order.
func (e *Engine) Evaluate(t *models.Transcript, current []models.Registration, cands []Candidate) []Verdict {
	in := e.Prepare(t, current, cands)
	verdicts := make([]Verdict, 0, len(steps))
	for _, s := range steps {
		verdicts = append(verdicts, Verdict{Check: s.name, Err: s.run(e.policy, in)})
	}
	return verdicts
}
