package models

import "time"

// Employee represents a staff member tracked by the promotion workflow.
type Employee struct {
	ID        string    `db:"id" json:"id"`
	NIK       string    `db:"nik" json:"nik"`
	FullName  string    `db:"full_name" json:"full_name"`
	Position  string    `db:"position" json:"position"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EmployeeMetrics is the one active metrics record per employee. The derived
// columns (step, eligible, can_take_exam, failed_at) are a materialized view
// of the pure evaluation and are always re-derivable from the inputs plus the
// matching rule; LastEvaluatedAt marks the most recent synchronization.
type EmployeeMetrics struct {
	ID                string     `db:"id" json:"id"`
	EmployeeID        string     `db:"employee_id" json:"employee_id"`
	PerformanceRating float64    `db:"performance_rating" json:"performance_rating"`
	PositionStartDate *time.Time `db:"position_start_date" json:"position_start_date,omitempty"`
	CourseCoverage    float64    `db:"course_coverage" json:"course_coverage"`
	ExamGrade         float64    `db:"exam_grade" json:"exam_grade"`

	Step            int        `db:"step" json:"step"`
	Eligible        bool       `db:"eligible" json:"eligible"`
	CanTakeExam     bool       `db:"can_take_exam" json:"can_take_exam"`
	FailedAt        string     `db:"failed_at" json:"failed_at"`
	LastEvaluatedAt *time.Time `db:"last_evaluated_at" json:"last_evaluated_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter captures filtering criteria for listing employees.
type EmployeeFilter struct {
	Position string
	Active   *bool
	Search   string
	Page     int
	PageSize int
}

// EmployeeEligibility joins an employee with their stored metrics for
// roster reporting.
type EmployeeEligibility struct {
	Employee Employee         `json:"employee"`
	Metrics  *EmployeeMetrics `json:"metrics,omitempty"`
	Rule     *PromotionRule   `json:"rule,omitempty"`
}
