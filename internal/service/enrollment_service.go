package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/enrollment"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/rules"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/export"
	"github.com/noah-isme/enrollment-api/pkg/middleware/requestid"
)

type offeringReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Offering, error)
}

type registrationRepository interface {
	ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.Registration, error)
	CreateBatch(ctx context.Context, regs []models.Registration) error
}

// SlipRenderer renders a registration slip in one output format.
type SlipRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// EnrollRequest describes the offerings a student asks to take in a term.
// An empty TermID falls back to the active term.
type EnrollRequest struct {
	TermID      string   `json:"term_id" validate:"required"`
	OfferingIDs []string `json:"offering_ids" validate:"required,min=1,dive,required"`
}

// EnrollmentConfig tunes request handling around the rule engine.
type EnrollmentConfig struct {
	ActiveTermID string
	MaxOfferings int
	CacheTTL     time.Duration
}

// ExportFile is a rendered registration slip.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// EnrollmentService loads persisted state into the rule engine and commits accepted requests.
type EnrollmentService struct {
	students      studentReader
	offerings     offeringReader
	registrations registrationRepository
	terms         termReader
	controller    *enrollment.Controller
	locker        *enrollment.Locker
	audit         *AuditService
	cache         *CacheService
	metrics       *MetricsService
	renderers     map[string]SlipRenderer
	cfg           EnrollmentConfig
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(
	students studentReader,
	offerings offeringReader,
	registrations registrationRepository,
	terms termReader,
	controller *enrollment.Controller,
	audit *AuditService,
	cache *CacheService,
	metrics *MetricsService,
	cfg EnrollmentConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentService {
	if controller == nil {
		controller = enrollment.NewController(nil)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxOfferings <= 0 {
		cfg.MaxOfferings = 12
	}
	csv := export.NewCSVExporter()
	pdf := export.NewPDFExporter()
	return &EnrollmentService{
		students:      students,
		offerings:     offerings,
		registrations: registrations,
		terms:         terms,
		controller:    controller,
		locker:        enrollment.NewLocker(),
		audit:         audit,
		cache:         cache,
		metrics:       metrics,
		renderers:     map[string]SlipRenderer{csv.Extension(): csv, pdf.Extension(): pdf},
		cfg:           cfg,
		validator:     validate,
		logger:        logger,
	}
}

// Enroll validates the requested offerings against the student's record and commits them
// as current-term registrations when every rule passes.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, actorID string, req EnrollRequest) (*models.EnrollmentResult, error) {
	req = s.withDefaults(req)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(studentID)
	defer unlock()

	student, offerings, err := s.prepare(ctx, studentID, req)
	if err != nil {
		return nil, err
	}

	committed := len(student.CurrentTerm)
	if err := s.controller.Enroll(student, offerings); err != nil {
		return nil, s.reject(ctx, studentID, actorID, req, err)
	}

	added := student.CurrentTerm[committed:]
	if err := s.registrations.CreateBatch(ctx, added); err != nil {
		student.CurrentTerm = student.CurrentTerm[:committed]
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist registrations")
	}
	_ = s.cache.Invalidate(ctx, registrationsCacheKey(studentID, req.TermID))

	units := rules.TotalUnits(rules.FromOfferings(offerings))
	s.metrics.RecordEnrollmentDecision(true, "", units)
	s.audit.Record(ctx, newDecision(studentID, req.TermID, actorID, req.OfferingIDs, nil))
	s.logger.Info("enrollment accepted",
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.String("student_id", studentID),
		zap.String("term_id", req.TermID),
		zap.Strings("offerings", req.OfferingIDs),
		zap.Int("units", units))

	return &models.EnrollmentResult{
		Status:        models.EnrollmentStatusAccepted,
		StudentID:     studentID,
		TermID:        req.TermID,
		Registrations: append([]models.Registration(nil), added...),
	}, nil
}

// Validate reports the verdict of every rule for the requested offerings without committing them.
func (s *EnrollmentService) Validate(ctx context.Context, studentID string, req EnrollRequest) (*models.EnrollmentReport, error) {
	req = s.withDefaults(req)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	student, offerings, err := s.prepare(ctx, studentID, req)
	if err != nil {
		return nil, err
	}

	report := &models.EnrollmentReport{
		StudentID: studentID,
		TermID:    req.TermID,
		Status:    models.EnrollmentStatusAccepted,
		Units:     rules.TotalUnits(rules.FromOfferings(offerings)),
	}
	if gpa, err := rules.ComputeGPA(student.Transcript); err == nil {
		value := gpa.Value
		report.GPA = &value
	}
	for _, verdict := range s.controller.Evaluate(student, offerings) {
		check := models.CheckVerdict{Check: verdict.Check, Passed: verdict.Err == nil}
		if verdict.Err != nil {
			report.Status = models.EnrollmentStatusRejected
			check.Message = verdict.Err.Error()
			if v, ok := rules.AsViolation(verdict.Err); ok {
				check.Reason = string(v.Reason)
			}
		}
		report.Checks = append(report.Checks, check)
	}
	return report, nil
}

// ListRegistrations returns the student's registrations for a term in commit order.
func (s *EnrollmentService) ListRegistrations(ctx context.Context, studentID, termID string) ([]models.Registration, error) {
	if termID == "" {
		termID = s.cfg.ActiveTermID
	}
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}

	key := registrationsCacheKey(studentID, termID)
	var cached []models.Registration
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	if _, err := requireStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	_ = s.cache.Set(ctx, key, regs, s.cfg.CacheTTL)
	return regs, nil
}

// ExportRegistrations renders the student's registration slip for a term as csv or pdf.
func (s *EnrollmentService) ExportRegistrations(ctx context.Context, studentID, termID, format string) (*ExportFile, error) {
	renderer, ok := s.renderers[strings.ToLower(format)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if termID == "" {
		termID = s.cfg.ActiveTermID
	}
	student, err := requireStudent(ctx, s.students, studentID)
	if err != nil {
		return nil, err
	}
	term, err := s.requireTerm(ctx, termID)
	if err != nil {
		return nil, err
	}
	regs, err := s.ListRegistrations(ctx, studentID, term.ID)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(slipDataset(regs), fmt.Sprintf("Registration slip - %s - %s", student.FullName, term.Name))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render registration slip")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("registrations-%s-%s.%s", student.NIS, term.ID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *EnrollmentService) withDefaults(req EnrollRequest) EnrollRequest {
	if req.TermID == "" {
		req.TermID = s.cfg.ActiveTermID
	}
	return req
}

func (s *EnrollmentService) validateRequest(req EnrollRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if len(req.OfferingIDs) > s.cfg.MaxOfferings {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d offerings may be requested at once", s.cfg.MaxOfferings))
	}
	return nil
}

// prepare loads the student with transcript and current-term registrations and resolves the offerings in request order.
func (s *EnrollmentService) prepare(ctx context.Context, studentID string, req EnrollRequest) (*models.Student, []models.Offering, error) {
	record, err := requireStudent(ctx, s.students, studentID)
	if err != nil {
		return nil, nil, err
	}
	if !record.Active {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student inactive")
	}
	if _, err := s.requireTerm(ctx, req.TermID); err != nil {
		return nil, nil, err
	}

	transcript, err := loadTranscript(ctx, s.students, studentID)
	if err != nil {
		return nil, nil, err
	}
	current, err := s.registrations.ListByStudentAndTerm(ctx, studentID, req.TermID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}
	student := &models.Student{ID: record.ID, Name: record.FullName, Transcript: transcript, CurrentTerm: current}

	offerings, err := s.resolveOfferings(ctx, req.TermID, req.OfferingIDs)
	if err != nil {
		return nil, nil, err
	}
	return student, offerings, nil
}

func (s *EnrollmentService) resolveOfferings(ctx context.Context, termID string, ids []string) ([]models.Offering, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	found, err := s.offerings.FindByIDs(ctx, unique)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offerings")
	}
	byID := make(map[string]models.Offering, len(found))
	for _, o := range found {
		byID[o.ID] = o
	}

	var missing []string
	offerings := make([]models.Offering, 0, len(ids))
	for _, id := range ids {
		o, ok := byID[id]
		if !ok {
			if seen[id] {
				missing = append(missing, id)
				seen[id] = false
			}
			continue
		}
		if o.TermID != termID {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("offering %s does not belong to term %s", id, termID))
		}
		offerings = append(offerings, o)
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrNotFound, "offering not found"),
			map[string]interface{}{"offering_ids": missing},
		)
	}
	return offerings, nil
}

func (s *EnrollmentService) requireTerm(ctx context.Context, termID string) (*models.Term, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// reject records a rejected request and translates the violation for the transport layer.
func (s *EnrollmentService) reject(ctx context.Context, studentID, actorID string, req EnrollRequest, err error) error {
	v, ok := rules.AsViolation(err)
	if !ok {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	s.metrics.RecordEnrollmentDecision(false, string(v.Reason), 0)
	s.audit.Record(ctx, newDecision(studentID, req.TermID, actorID, req.OfferingIDs, v))
	s.logger.Info("enrollment rejected",
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.String("student_id", studentID),
		zap.String("term_id", req.TermID),
		zap.String("reason", string(v.Reason)),
		zap.Strings("offerings", req.OfferingIDs))

	return appErrors.WithDetails(
		appErrors.Wrap(v, string(v.Reason), appErrors.ErrRuleViolation.Status, v.Message),
		map[string]interface{}{"reason": v.Reason, "courses": v.Courses},
	)
}

func slipDataset(regs []models.Registration) export.Dataset {
	data := export.Dataset{Headers: []string{"Code", "Course", "Section", "Exam", "Units"}}
	total := 0
	for _, reg := range regs {
		data.Rows = append(data.Rows, map[string]string{
			"Code":    reg.Course.Code,
			"Course":  reg.Course.Name,
			"Section": strconv.Itoa(reg.Section),
			"Exam":    reg.ExamTime.Format("2006-01-02 15:04"),
			"Units":   strconv.Itoa(reg.Course.Units),
		})
		total += reg.Course.Units
	}
	data.Footer = map[string]string{"Code": "Total", "Units": strconv.Itoa(total)}
	return data
}

func registrationsCacheKey(studentID, termID string) string {
	return "registrations:" + studentID + ":" + termID
}
