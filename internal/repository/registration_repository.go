package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// RegistrationRepository persists current-term registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// ListByStudentAndTerm returns registrations in the order they were committed.
func (r *RegistrationRepository) ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.Registration, error) {
	const query = `SELECT rg.id, rg.student_id, rg.offering_id, rg.term_id, o.section, o.exam_time,
        c.id AS course_id, c.code AS course_code, c.name AS course_name, c.units AS course_units, rg.created_at
        FROM registrations rg
        JOIN offerings o ON o.id = rg.offering_id
        JOIN courses c ON c.id = o.course_id
        WHERE rg.student_id = $1 AND rg.term_id = $2
        ORDER BY rg.created_at, rg.position`
	var rows []models.RegistrationRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	regs := make([]models.Registration, len(rows))
	for i, row := range rows {
		reg, err := row.Registration()
		if err != nil {
			return nil, fmt.Errorf("list registrations: %w", err)
		}
		regs[i] = reg
	}
	return regs, nil
}

// CreateBatch inserts all registrations in one transaction. IDs and timestamps are filled in place.
func (r *RegistrationRepository) CreateBatch(ctx context.Context, regs []models.Registration) (err error) {
	if len(regs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO registrations (id, student_id, offering_id, term_id, position, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	now := time.Now().UTC()
	for i := range regs {
		if regs[i].ID == "" {
			regs[i].ID = uuid.NewString()
		}
		regs[i].CreatedAt = now
		if _, err = tx.ExecContext(ctx, query, regs[i].ID, regs[i].StudentID, regs[i].OfferingID, regs[i].TermID, i, now); err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}
	return nil
}
