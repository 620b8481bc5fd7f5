package models

import "time"

// ProbationStatus enumerates contract lifecycle states.
type ProbationStatus string

const (
	ProbationActive     ProbationStatus = "ACTIVE"
	ProbationCompleted  ProbationStatus = "COMPLETED"
	ProbationTerminated ProbationStatus = "TERMINATED"
)

// ProbationContract tracks a probationary period: its expiry, the scheduled
// performance evaluation and the training-plan delivery deadline.
type ProbationContract struct {
	ID               string          `db:"id" json:"id"`
	EmployeeID       string          `db:"employee_id" json:"employee_id"`
	StartDate        time.Time       `db:"start_date" json:"start_date"`
	EndDate          time.Time       `db:"end_date" json:"end_date"`
	EvaluationDate   *time.Time      `db:"evaluation_date" json:"evaluation_date,omitempty"`
	TrainingDeadline *time.Time      `db:"training_deadline" json:"training_deadline,omitempty"`
	Status           ProbationStatus `db:"status" json:"status"`
	Notes            string          `db:"notes" json:"notes"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// ProbationFilter captures filtering criteria for listing contracts.
type ProbationFilter struct {
	EmployeeID string
	Status     ProbationStatus
	Page       int
	PageSize   int
}
