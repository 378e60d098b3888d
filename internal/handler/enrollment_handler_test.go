package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/rules"
	"github.com/noah-isme/enrollment-api/internal/service"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type enrollmentServiceMock struct {
	enrollResp   *models.EnrollmentResult
	enrollErr    error
	validateResp *models.EnrollmentReport
	listResp     []models.Registration
	exportResp   *service.ExportFile
	exportErr    error

	lastStudent string
	lastActor   string
	lastReq     service.EnrollRequest
	lastTerm    string
	lastFormat  string
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, studentID, actorID string, req service.EnrollRequest) (*models.EnrollmentResult, error) {
	m.lastStudent, m.lastActor, m.lastReq = studentID, actorID, req
	return m.enrollResp, m.enrollErr
}

func (m *enrollmentServiceMock) Validate(ctx context.Context, studentID string, req service.EnrollRequest) (*models.EnrollmentReport, error) {
	m.lastStudent, m.lastReq = studentID, req
	return m.validateResp, nil
}

func (m *enrollmentServiceMock) ListRegistrations(ctx context.Context, studentID, termID string) ([]models.Registration, error) {
	m.lastStudent, m.lastTerm = studentID, termID
	return m.listResp, nil
}

func (m *enrollmentServiceMock) ExportRegistrations(ctx context.Context, studentID, termID, format string) (*service.ExportFile, error) {
	m.lastStudent, m.lastTerm, m.lastFormat = studentID, termID, format
	return m.exportResp, m.exportErr
}

func newStudentContext(w *httptest.ResponseRecorder, method, target, body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	return c
}

type errorBody struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func TestEnrollmentHandlerEnroll(t *testing.T) {
	mockSvc := &enrollmentServiceMock{enrollResp: &models.EnrollmentResult{Status: models.EnrollmentStatusAccepted, StudentID: "stu-1"}}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c := newStudentContext(w, http.MethodPost, "/students/stu-1/enrollments", `{"term_id":"term-2","offering_ids":["o-1","o-2"]}`)
	handler.Enroll(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "stu-1", mockSvc.lastStudent)
	assert.Equal(t, "stu-1", mockSvc.lastActor)
	assert.Equal(t, []string{"o-1", "o-2"}, mockSvc.lastReq.OfferingIDs)
	assert.Contains(t, w.Body.String(), `"status":"ACCEPTED"`)
}

func TestEnrollmentHandlerEnrollInvalidBody(t *testing.T) {
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c := newStudentContext(w, http.MethodPost, "/students/stu-1/enrollments", `{"offering_ids":`)
	handler.Enroll(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mockSvc.lastStudent)
}

func TestEnrollmentHandlerEnrollViolation(t *testing.T) {
	violation := &rules.Violation{
		Reason:  rules.ReasonExamConflict,
		Message: "two offerings Math 2 - 1 and Physics 1 - 1 have the same exam time",
		Courses: []string{"MATH2", "PHYS1"},
	}
	mockSvc := &enrollmentServiceMock{enrollErr: appErrors.WithDetails(
		appErrors.Wrap(violation, string(violation.Reason), http.StatusUnprocessableEntity, violation.Message),
		map[string]interface{}{"reason": violation.Reason, "courses": violation.Courses},
	)}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c := newStudentContext(w, http.MethodPost, "/students/stu-1/enrollments", `{"term_id":"term-2","offering_ids":["o-1","o-2"]}`)
	handler.Enroll(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "EXAM_CONFLICT", body.Error.Code)
	assert.Equal(t, violation.Message, body.Error.Message)
	assert.Equal(t, "EXAM_CONFLICT", body.Error.Details["reason"])
	assert.Equal(t, []interface{}{"MATH2", "PHYS1"}, body.Error.Details["courses"])
}

func TestEnrollmentHandlerValidate(t *testing.T) {
	mockSvc := &enrollmentServiceMock{validateResp: &models.EnrollmentReport{
		Status: models.EnrollmentStatusRejected,
		Checks: []models.CheckVerdict{{Check: rules.CheckNameAlreadyPassed, Passed: false, Reason: string(rules.ReasonAlreadyPassed)}},
	}}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c := newStudentContext(w, http.MethodPost, "/students/stu-1/enrollments/validate", `{"offering_ids":["o-1"]}`)
	handler.Validate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reason":"ALREADY_PASSED"`)
	assert.Equal(t, "", mockSvc.lastReq.TermID)
}

func TestEnrollmentHandlerListRegistrations(t *testing.T) {
	mockSvc := &enrollmentServiceMock{listResp: []models.Registration{{ID: "reg-1"}, {ID: "reg-2"}}}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c := newStudentContext(w, http.MethodGet, "/students/stu-1/registrations?termId=term-2", "")
	handler.ListRegistrations(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-2", mockSvc.lastTerm)
	assert.Contains(t, w.Body.String(), `"count":2`)
}

func TestEnrollmentHandlerExport(t *testing.T) {
	mockSvc := &enrollmentServiceMock{exportResp: &service.ExportFile{Filename: "registrations-9801-term-2.csv", ContentType: "text/csv", Payload: []byte("Code\n")}}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c := newStudentContext(w, http.MethodGet, "/students/stu-1/registrations/export?termId=term-2", "")
	handler.ExportRegistrations(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.lastFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "registrations-9801-term-2.csv")
	assert.Equal(t, "Code\n", w.Body.String())
}

func TestEnrollmentHandlerExportError(t *testing.T) {
	mockSvc := &enrollmentServiceMock{exportErr: appErrors.Clone(appErrors.ErrValidation, `unsupported export format "xlsx"`)}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c := newStudentContext(w, http.MethodGet, "/students/stu-1/registrations/export?format=xlsx", "")
	handler.ExportRegistrations(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "xlsx", mockSvc.lastFormat)
}
