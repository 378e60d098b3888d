package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// DecisionRepository stores the audit trail of enrollment attempts.
type DecisionRepository struct {
	db *sqlx.DB
}

// NewDecisionRepository constructs the repository.
func NewDecisionRepository(db *sqlx.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// Create persists a decision.
func (r *DecisionRepository) Create(ctx context.Context, decision *models.EnrollmentDecision) error {
	if decision.ID == "" {
		decision.ID = uuid.NewString()
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollment_decisions (id, student_id, term_id, status, reason, message, offering_ids, actor_id, created_at)
        VALUES (:id, :student_id, :term_id, :status, :reason, :message, :offering_ids, :actor_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, decision); err != nil {
		return fmt.Errorf("create enrollment decision: %w", err)
	}
	return nil
}
