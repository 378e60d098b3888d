package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/jobs"
)

var (
	fallTerm   = models.Term{ID: "term-1", Name: "Fall 2023"}
	springTerm = models.Term{ID: "term-2", Name: "Spring 2024"}

	math1 = models.Course{ID: "c-math1", Code: "MATH1", Name: "Math 1", Units: 3}
	prog  = models.Course{ID: "c-prog", Code: "PROG", Name: "Programming", Units: 4}
	math2 = models.Course{ID: "c-math2", Code: "MATH2", Name: "Math 2", Units: 3, Prerequisites: []models.Course{math1}}
	ap    = models.Course{ID: "c-ap", Code: "AP", Name: "Advanced Programming", Units: 3, Prerequisites: []models.Course{prog}}
	ds    = models.Course{ID: "c-ds", Code: "DS", Name: "Data Structures", Units: 3, Prerequisites: []models.Course{ap}}
	phys1 = models.Course{ID: "c-phys1", Code: "PHYS1", Name: "Physics 1", Units: 3}
)

func examDay(day int) time.Time {
	return time.Date(2024, time.January, day, 9, 0, 0, 0, time.UTC)
}

func springOfferings() map[string]models.Offering {
	return map[string]models.Offering{
		"o-math1":  {ID: "o-math1", TermID: springTerm.ID, Course: math1, Section: 1, ExamTime: examDay(9)},
		"o-math2":  {ID: "o-math2", TermID: springTerm.ID, Course: math2, Section: 1, ExamTime: examDay(10)},
		"o-math2b": {ID: "o-math2b", TermID: springTerm.ID, Course: math2, Section: 2, ExamTime: examDay(13)},
		"o-ap":     {ID: "o-ap", TermID: springTerm.ID, Course: ap, Section: 2, ExamTime: examDay(11)},
		"o-ds":     {ID: "o-ds", TermID: springTerm.ID, Course: ds, Section: 1, ExamTime: examDay(12)},
		"o-phys1":  {ID: "o-phys1", TermID: springTerm.ID, Course: phys1, Section: 1, ExamTime: examDay(10)},
		"o-fall":   {ID: "o-fall", TermID: fallTerm.ID, Course: phys1, Section: 3, ExamTime: examDay(2)},
	}
}

func transcriptRow(term models.Term, course models.Course, grade float64) models.TranscriptRow {
	return models.TranscriptRow{
		StudentID:   "stu-1",
		TermID:      term.ID,
		TermName:    term.Name,
		CourseID:    course.ID,
		CourseCode:  course.Code,
		CourseName:  course.Name,
		CourseUnits: course.Units,
		Grade:       grade,
	}
}

type mockStudentRepo struct {
	students        map[string]*models.StudentRecord
	transcript      []models.TranscriptRow
	transcriptCalls int
	added           []models.TranscriptRow
	addErr          error
}

func newMockStudentRepo(rows ...models.TranscriptRow) *mockStudentRepo {
	return &mockStudentRepo{
		students: map[string]*models.StudentRecord{
			"stu-1": {ID: "stu-1", NIS: "9801", FullName: "Ali Rezaei", Active: true},
			"stu-9": {ID: "stu-9", NIS: "9809", FullName: "Sara Karimi", Active: false},
		},
		transcript: rows,
	}
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentRecord, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ListTranscript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	m.transcriptCalls++
	return m.transcript, nil
}

func (m *mockStudentRepo) AddTranscriptRecord(ctx context.Context, studentID, termID, courseID string, grade float64) (string, error) {
	if m.addErr != nil {
		return "", m.addErr
	}
	m.added = append(m.added, models.TranscriptRow{StudentID: studentID, TermID: termID, CourseID: courseID, Grade: grade})
	return "tr-new", nil
}

type mockOfferingRepo struct {
	offerings map[string]models.Offering
	requested []string
}

func (m *mockOfferingRepo) FindByIDs(ctx context.Context, ids []string) ([]models.Offering, error) {
	m.requested = ids
	var found []models.Offering
	for _, id := range ids {
		if o, ok := m.offerings[id]; ok {
			found = append(found, o)
		}
	}
	return found, nil
}

type mockRegistrationRepo struct {
	existing  []models.Registration
	created   []models.Registration
	createErr error
	listCalls int
}

func (m *mockRegistrationRepo) ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.Registration, error) {
	m.listCalls++
	return m.existing, nil
}

func (m *mockRegistrationRepo) CreateBatch(ctx context.Context, regs []models.Registration) error {
	if m.createErr != nil {
		return m.createErr
	}
	for i := range regs {
		regs[i].ID = "reg-" + regs[i].OfferingID
	}
	m.created = append(m.created, regs...)
	return nil
}

type mockTermRepo struct{}

func (mockTermRepo) FindByID(ctx context.Context, id string) (*models.Term, error) {
	switch id {
	case fallTerm.ID:
		t := fallTerm
		return &t, nil
	case springTerm.ID:
		t := springTerm
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseRepo struct{}

func (mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	for _, c := range []models.Course{math1, prog, math2, ap, ds, phys1} {
		if c.ID == id {
			course := c
			return &course, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockDecisionRepo struct {
	decisions []models.EnrollmentDecision
	err       error
}

func (m *mockDecisionRepo) Create(ctx context.Context, decision *models.EnrollmentDecision) error {
	if m.err != nil {
		return m.err
	}
	m.decisions = append(m.decisions, *decision)
	return nil
}

type mockCacheRepo struct {
	store   map[string][]byte
	deleted []string
	gets    int
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{store: make(map[string][]byte)}
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = raw
	return nil
}

func (m *mockCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.store, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

type mockEnqueuer struct {
	jobs []jobs.Job
	err  error
}

func (m *mockEnqueuer) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}
