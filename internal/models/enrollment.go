package models

import "time"

// EnrollmentStatus is the terminal outcome of an enrollment request.
type EnrollmentStatus string

// Possible enrollment outcomes.
const (
	EnrollmentStatusAccepted EnrollmentStatus = "ACCEPTED"
	EnrollmentStatusRejected EnrollmentStatus = "REJECTED"
)

// EnrollmentResult is returned to callers after a committed enrollment.
type EnrollmentResult struct {
	Status        EnrollmentStatus `json:"status"`
	StudentID     string           `json:"student_id"`
	TermID        string           `json:"term_id"`
	Registrations []Registration   `json:"registrations"`
}

// CheckVerdict is the outcome of a single rule check in a dry run.
type CheckVerdict struct {
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// EnrollmentReport lists every rule verdict for a candidate set without committing it.
type EnrollmentReport struct {
	StudentID string           `json:"student_id"`
	TermID    string           `json:"term_id"`
	Status    EnrollmentStatus `json:"status"`
	Units     int              `json:"units"`
	GPA       *float64         `json:"gpa,omitempty"`
	Checks    []CheckVerdict   `json:"checks"`
}

// EnrollmentDecision is the audit trail entry of an enrollment attempt.
type EnrollmentDecision struct {
	ID          string           `db:"id" json:"id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	TermID      string           `db:"term_id" json:"term_id"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	Reason      *string          `db:"reason" json:"reason,omitempty"`
	Message     *string          `db:"message" json:"message,omitempty"`
	OfferingIDs string           `db:"offering_ids" json:"offering_ids"`
	ActorID     *string          `db:"actor_id" json:"actor_id,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// GPAResult describes a student's cumulative grade-point average.
type GPAResult struct {
	StudentID string  `json:"student_id"`
	GPA       float64 `json:"gpa"`
	Units     int     `json:"units"`
	Terms     int     `json:"terms"`
}
