package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/rules"
	"github.com/noah-isme/enrollment-api/pkg/jobs"
)

// JobTypeEnrollmentDecision identifies queued enrollment decisions.
const JobTypeEnrollmentDecision = "enrollment_decision"

type decisionRepository interface {
	Create(ctx context.Context, decision *models.EnrollmentDecision) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// AuditService records the outcome of every enrollment attempt.
type AuditService struct {
	repo    decisionRepository
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs AuditService. Without a queue decisions are written synchronously.
func NewAuditService(repo decisionRepository, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger}
}

// UseQueue routes decisions through q. The queue's handler must be s.Handle.
func (s *AuditService) UseQueue(q jobEnqueuer) {
	s.queue = q
}

// Record stores a decision. Failures are logged and never surface to the caller.
func (s *AuditService) Record(ctx context.Context, decision models.EnrollmentDecision) {
	if s == nil || s.repo == nil {
		return
	}
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{Type: JobTypeEnrollmentDecision, Payload: decision})
		if err == nil {
			return
		}
		s.logger.Warn("enqueue enrollment decision failed, writing inline", zap.String("student_id", decision.StudentID), zap.Error(err))
	}
	if err := s.repo.Create(ctx, &decision); err != nil {
		s.logger.Error("persist enrollment decision failed", zap.String("student_id", decision.StudentID), zap.Error(err))
	}
}

// Handle is the jobs.Handler persisting queued decisions.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeEnrollmentDecision {
		return fmt.Errorf("unsupported job type %q", job.Type)
	}
	decision, ok := job.Payload.(models.EnrollmentDecision)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	return s.repo.Create(ctx, &decision)
}

// OnDropped is the jobs.FailureHook for decisions that exhausted their retries.
func (s *AuditService) OnDropped(job jobs.Job, err error) {
	s.metrics.RecordAuditDropped()
	s.logger.Error("enrollment decision dropped", zap.String("job_id", job.ID), zap.Error(err))
}

func newDecision(studentID, termID, actorID string, offeringIDs []string, rejection error) models.EnrollmentDecision {
	decision := models.EnrollmentDecision{
		StudentID:   studentID,
		TermID:      termID,
		Status:      models.EnrollmentStatusAccepted,
		OfferingIDs: strings.Join(offeringIDs, ","),
	}
	if actorID != "" {
		decision.ActorID = &actorID
	}
	if rejection != nil {
		decision.Status = models.EnrollmentStatusRejected
		message := rejection.Error()
		decision.Message = &message
		if v, ok := rules.AsViolation(rejection); ok {
			reason := string(v.Reason)
			decision.Reason = &reason
		}
	}
	return decision
}
