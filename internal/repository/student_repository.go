package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// StudentRepository handles persistence of students and their transcripts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentRecord, error) {
	const query = `SELECT id, nis, full_name, active, created_at FROM students WHERE id = $1`
	var student models.StudentRecord
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListTranscript returns every graded course of the student across all terms.
func (r *StudentRepository) ListTranscript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	const query = `SELECT tr.id, tr.student_id, tr.term_id, t.name AS term_name,
        c.id AS course_id, c.code AS course_code, c.name AS course_name, c.units AS course_units, tr.grade
        FROM transcript_records tr
        JOIN courses c ON c.id = tr.course_id
        JOIN terms t ON t.id = tr.term_id
        WHERE tr.student_id = $1
        ORDER BY t.start_date, c.code`
	var rows []models.TranscriptRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	return rows, nil
}

// AddTranscriptRecord persists a graded course. A second grade for the same term and course
// yields models.ErrDuplicateTranscriptRecord.
func (r *StudentRepository) AddTranscriptRecord(ctx context.Context, studentID, termID, courseID string, grade float64) (string, error) {
	id := uuid.NewString()
	const query = `INSERT INTO transcript_records (id, student_id, term_id, course_id, grade, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, id, studentID, termID, courseID, grade, time.Now().UTC()); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("add transcript record: %w", models.ErrDuplicateTranscriptRecord)
		}
		return "", fmt.Errorf("add transcript record: %w", err)
	}
	return id, nil
}
