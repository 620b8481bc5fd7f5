package eligibility

import "time"

// Gate identifies the check an evaluation stopped at.
type Gate string

const (
	GateNone        Gate = "none"
	GatePerformance Gate = "performance"
	GateTime        Gate = "time"
	GateCourses     Gate = "courses"
	GateExam        Gate = "exam"
)

// Metrics is the recorded input for one employee. ExamGrade == 0 is a
// sentinel meaning "no exam taken yet", not a scored zero; stored records
// rely on that convention.
type Metrics struct {
	PerformanceRating float64
	PositionStart     Date
	CourseCoverage    float64
	ExamGrade         float64
}

// Outcome is the 5-step gating state for one employee.
type Outcome struct {
	Step        int  `json:"step"`
	Eligible    bool `json:"eligible"`
	CanTakeExam bool `json:"can_take_exam"`
	FailedAt    Gate `json:"failed_at"`
}

// Evaluate computes the gating state for one employee against the matched
// rule. Gates are strictly sequential: a later gate is never inspected once
// an earlier one fails. A nil rule (no promotion path for the position) is
// the terminal not-eligible state, not an error. The function is pure and
// deterministic for identical inputs.
func Evaluate(rule *Rule, m Metrics, today time.Time) Outcome {
	if rule == nil {
		return Outcome{Step: 0, FailedAt: GateNone}
	}

	if m.PerformanceRating < rule.MinPerformanceRating {
		return Outcome{Step: 1, FailedAt: GatePerformance}
	}

	if MonthsSince(m.PositionStart, today) < rule.MinTenureMonths {
		return Outcome{Step: 2, FailedAt: GateTime}
	}

	if m.CourseCoverage < rule.MinCourseCoverage {
		return Outcome{Step: 3, FailedAt: GateCourses}
	}

	if m.ExamGrade == 0 {
		// All prior gates passed; the employee is cleared to sit the exam.
		return Outcome{Step: 4, CanTakeExam: true, FailedAt: GateNone}
	}

	if m.ExamGrade >= rule.MinExamGrade {
		return Outcome{Step: 5, Eligible: true, FailedAt: GateNone}
	}
	return Outcome{Step: 5, CanTakeExam: true, FailedAt: GateExam}
}
