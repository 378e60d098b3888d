package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/service"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, studentID, actorID string, req service.EnrollRequest) (*models.EnrollmentResult, error)
	Validate(ctx context.Context, studentID string, req service.EnrollRequest) (*models.EnrollmentReport, error)
	ListRegistrations(ctx context.Context, studentID, termID string) ([]models.Registration, error)
	ExportRegistrations(ctx context.Context, studentID, termID, format string) (*service.ExportFile, error)
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Enroll godoc
// @Summary Enroll student in offerings
// @Description Commits every requested offering when all enrollment rules pass. A violated rule yields 422 with the reason code.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{id}/enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollments.Enroll(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Validate godoc
// @Summary Dry-run enrollment rules
// @Description Reports the verdict of every enrollment rule without committing anything.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments/validate [post]
func (h *EnrollmentHandler) Validate(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.enrollments.Validate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ListRegistrations godoc
// @Summary List current-term registrations
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Param termId query string false "Term ID (defaults to the active term)"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/registrations [get]
func (h *EnrollmentHandler) ListRegistrations(c *gin.Context) {
	regs, err := h.enrollments.ListRegistrations(c.Request.Context(), c.Param("id"), c.Query("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, nil, map[string]interface{}{"count": len(regs)})
}

// ExportRegistrations godoc
// @Summary Download registration slip
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param termId query string false "Term ID (defaults to the active term)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /students/{id}/registrations/export [get]
func (h *EnrollmentHandler) ExportRegistrations(c *gin.Context) {
	file, err := h.enrollments.ExportRegistrations(c.Request.Context(), c.Param("id"), c.Query("termId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
