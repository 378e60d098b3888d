package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/rules"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentRecord, error)
	ListTranscript(ctx context.Context, studentID string) ([]models.TranscriptRow, error)
}

type transcriptRepository interface {
	studentReader
	AddTranscriptRecord(ctx context.Context, studentID, termID, courseID string, grade float64) (string, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type termReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// TranscriptRecordRequest describes a graded course to append to a transcript.
type TranscriptRecordRequest struct {
	TermID   string   `json:"term_id" validate:"required"`
	CourseID string   `json:"course_id" validate:"required"`
	Grade    *float64 `json:"grade" validate:"required,gte=0,lte=20"`
}

// TranscriptService maintains transcripts and derives GPAs from them.
type TranscriptService struct {
	repo      transcriptRepository
	courses   courseReader
	terms     termReader
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(repo transcriptRepository, courses courseReader, terms termReader, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *TranscriptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{repo: repo, courses: courses, terms: terms, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// AddRecord appends a graded course to the student's transcript.
func (s *TranscriptService) AddRecord(ctx context.Context, studentID string, req TranscriptRecordRequest) (*models.TranscriptRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transcript payload")
	}
	if _, err := requireStudent(ctx, s.repo, studentID); err != nil {
		return nil, err
	}
	term, err := s.terms.FindByID(ctx, req.TermID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if _, err := s.repo.AddTranscriptRecord(ctx, studentID, term.ID, course.ID, *req.Grade); err != nil {
		if errors.Is(err, models.ErrDuplicateTranscriptRecord) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course already graded for this term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add transcript record")
	}
	_ = s.cache.Invalidate(ctx, gpaCacheKey(studentID))

	s.logger.Info("transcript record added",
		zap.String("student_id", studentID),
		zap.String("term_id", term.ID),
		zap.String("course", course.Code),
		zap.Float64("grade", *req.Grade))

	return &models.TranscriptRecord{Term: *term, Course: *course, Grade: *req.Grade}, nil
}

// GPA returns the cumulative grade-point average across every term of the student.
func (s *TranscriptService) GPA(ctx context.Context, studentID string) (*models.GPAResult, error) {
	var cached models.GPAResult
	if hit, _ := s.cache.Get(ctx, gpaCacheKey(studentID), &cached); hit {
		return &cached, nil
	}

	if _, err := requireStudent(ctx, s.repo, studentID); err != nil {
		return nil, err
	}
	transcript, err := loadTranscript(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}
	gpa, err := rules.ComputeGPA(transcript)
	if err != nil {
		if errors.Is(err, rules.ErrUndefinedGPA) {
			return nil, appErrors.Wrap(err, appErrors.ErrUndefinedGPA.Code, appErrors.ErrUndefinedGPA.Status, appErrors.ErrUndefinedGPA.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute gpa")
	}

	result := &models.GPAResult{
		StudentID: studentID,
		GPA:       gpa.Value,
		Units:     gpa.Units,
		Terms:     transcript.TermCount(),
	}
	_ = s.cache.Set(ctx, gpaCacheKey(studentID), result, s.cacheTTL)
	return result, nil
}

func requireStudent(ctx context.Context, students studentReader, id string) (*models.StudentRecord, error) {
	student, err := students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func loadTranscript(ctx context.Context, students studentReader, studentID string) (*models.Transcript, error) {
	rows, err := students.ListTranscript(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
	}
	transcript := models.NewTranscript()
	for _, row := range rows {
		rec, err := row.Record()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid transcript record")
		}
		if err := transcript.Add(rec.Course, rec.Term, rec.Grade); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "inconsistent transcript")
		}
	}
	return transcript, nil
}
