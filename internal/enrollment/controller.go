// Package enrollment commits candidate offerings to a student once every rule passes.
package enrollment

import (
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/rules"
)

// Controller validates and commits enrollment requests in memory.
// It does not lock: callers serialize requests for the same student, see Locker.
type Controller struct {
	engine *rules.Engine
}

// NewController constructs a Controller. A nil engine uses the default policy.
func NewController(engine *rules.Engine) *Controller {
	if engine == nil {
		engine = rules.NewEngine(rules.DefaultPolicy())
	}
	return &Controller{engine: engine}
}

// Engine exposes the underlying rule engine.
func (c *Controller) Engine() *rules.Engine {
	return c.engine
}

// Check validates offerings for the student without committing them.
func (c *Controller) Check(s *models.Student, offerings []models.Offering) error {
	return c.engine.Validate(s.Transcript, s.CurrentTerm, rules.FromOfferings(offerings))
}

// Enroll validates offerings and, when every check passes, appends one
// current-term registration per offering in input order. A rejected request
// leaves the student untouched.
func (c *Controller) Enroll(s *models.Student, offerings []models.Offering) error {
	if err := c.Check(s, offerings); err != nil {
		return err
	}
	for _, o := range offerings {
		s.TakeCourse(o)
	}
	return nil
}

// Evaluate returns every check verdict for offerings without committing them.
func (c *Controller) Evaluate(s *models.Student, offerings []models.Offering) []rules.Verdict {
	return c.engine.Evaluate(s.Transcript, s.CurrentTerm, rules.FromOfferings(offerings))
}
