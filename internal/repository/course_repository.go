package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// CourseRepository reads catalog courses and their prerequisites.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course with its prerequisites.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, units FROM courses WHERE id = $1`
	var row models.Course
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	prereqs, err := r.ListPrerequisites(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	course, err := models.NewCourse(row.ID, row.Code, row.Name, row.Units, prereqs[id]...)
	if err != nil {
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// ListPrerequisites returns prerequisites keyed by course ID.
func (r *CourseRepository) ListPrerequisites(ctx context.Context, courseIDs []string) (map[string][]models.Course, error) {
	result := make(map[string][]models.Course, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}
	const query = `SELECT cp.course_id, cp.prerequisite_id, c.code, c.name, c.units
        FROM course_prerequisites cp
        JOIN courses c ON c.id = cp.prerequisite_id
        WHERE cp.course_id = ANY($1)
        ORDER BY cp.course_id, c.code`
	var rows []models.CoursePrerequisite
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	for _, row := range rows {
		pre, err := models.NewCourse(row.PrerequisiteID, row.Code, row.Name, row.Units)
		if err != nil {
			return nil, fmt.Errorf("prerequisite of %s: %w", row.CourseID, err)
		}
		result[row.CourseID] = append(result[row.CourseID], pre)
	}
	return result, nil
}
