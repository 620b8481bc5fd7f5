package models

import "time"

// ExamAttempt is an append-only record of one qualification exam sitting.
// Passed is computed when the attempt is recorded (grade >= min_grade_required)
// and never changes afterwards except through the administrative recompute.
type ExamAttempt struct {
	ID               string    `db:"id" json:"id"`
	EmployeeID       string    `db:"employee_id" json:"employee_id"`
	ExamDate         time.Time `db:"exam_date" json:"exam_date"`
	Grade            float64   `db:"grade" json:"grade"`
	MinGradeRequired float64   `db:"min_grade_required" json:"min_grade_required"`
	Passed           bool      `db:"passed" json:"passed"`
	Position         string    `db:"position" json:"position"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// RecomputeSummary aggregates the outcome of an exam-history reconciliation.
type RecomputeSummary struct {
	Processed int `json:"processed"`
	Changed   int `json:"changed"`
	Failed    int `json:"failed"`
}
