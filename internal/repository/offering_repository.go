package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// OfferingRepository resolves offerings with their courses and prerequisites.
type OfferingRepository struct {
	db      *sqlx.DB
	courses *CourseRepository
}

// NewOfferingRepository constructs the repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db, courses: NewCourseRepository(db)}
}

// FindByIDs returns the offerings that exist among ids, in no particular order.
func (r *OfferingRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Offering, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT o.id, o.term_id, o.section, o.exam_time,
        c.id AS course_id, c.code AS course_code, c.name AS course_name, c.units AS course_units
        FROM offerings o
        JOIN courses c ON c.id = o.course_id
        WHERE o.id = ANY($1)`

	var rows []models.OfferingRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find offerings: %w", err)
	}

	courseIDs := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if !seen[row.CourseID] {
			seen[row.CourseID] = true
			courseIDs = append(courseIDs, row.CourseID)
		}
	}
	prereqs, err := r.courses.ListPrerequisites(ctx, courseIDs)
	if err != nil {
		return nil, err
	}

	offerings := make([]models.Offering, len(rows))
	for i, row := range rows {
		offering, err := row.Offering()
		if err != nil {
			return nil, err
		}
		offering.Course.Prerequisites = prereqs[row.CourseID]
		offerings[i] = offering
	}
	return offerings, nil
}
