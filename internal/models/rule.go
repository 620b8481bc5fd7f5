package models

import "time"

// PromotionRule defines the thresholds an employee must clear to advance
// from CurrentPosition to Promotion. At most one rule exists per normalized
// position name (unique index on current_position).
type PromotionRule struct {
	ID                   string    `db:"id" json:"id"`
	CurrentPosition      string    `db:"current_position" json:"current_position"`
	Promotion            string    `db:"promotion" json:"promotion"`
	MinTenureMonths      int       `db:"min_tenure_months" json:"min_tenure_months"`
	MinExamGrade         float64   `db:"min_exam_grade" json:"min_exam_grade"`
	MinCourseCoverage    float64   `db:"min_course_coverage" json:"min_course_coverage"`
	MinPerformanceRating float64   `db:"min_performance_rating" json:"min_performance_rating"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// PromotionRuleFilter captures filtering criteria for listing rules.
type PromotionRuleFilter struct {
	Search   string
	Page     int
	PageSize int
}
