package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func operatorRule() *Rule {
	return &Rule{
		CurrentPosition:      "OPERATOR C",
		Promotion:            "OPERATOR B",
		MinTenureMonths:      6,
		MinExamGrade:         80,
		MinCourseCoverage:    60,
		MinPerformanceRating: 80,
	}
}

func TestEvaluateNoRule(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	outcome := Evaluate(nil, Metrics{PerformanceRating: 100}, today)
	assert.Equal(t, Outcome{Step: 0, FailedAt: GateNone}, outcome)
}

func TestEvaluateClearedForExam(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{
		PerformanceRating: 85,
		PositionStart:     TimeDate(today.AddDate(0, -6, 0)),
		CourseCoverage:    70,
		ExamGrade:         0,
	}
	outcome := Evaluate(operatorRule(), m, today)
	assert.Equal(t, Outcome{Step: 4, CanTakeExam: true, FailedAt: GateNone}, outcome)
}

func TestEvaluatePerformanceGate(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{
		PerformanceRating: 60,
		PositionStart:     TimeDate(today.AddDate(0, -6, 0)),
		CourseCoverage:    70,
		ExamGrade:         90,
	}
	outcome := Evaluate(operatorRule(), m, today)
	assert.Equal(t, Outcome{Step: 1, FailedAt: GatePerformance}, outcome)
}

func TestEvaluateEligible(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{
		PerformanceRating: 85,
		PositionStart:     TimeDate(today.AddDate(0, -8, 0)),
		CourseCoverage:    70,
		ExamGrade:         90,
	}
	outcome := Evaluate(operatorRule(), m, today)
	assert.Equal(t, Outcome{Step: 5, Eligible: true, FailedAt: GateNone}, outcome)
}

func TestEvaluateTenureGate(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{
		PerformanceRating: 85,
		PositionStart:     TimeDate(today.AddDate(0, -3, 0)),
		CourseCoverage:    70,
		ExamGrade:         90,
	}
	outcome := Evaluate(operatorRule(), m, today)
	assert.Equal(t, Outcome{Step: 2, FailedAt: GateTime}, outcome)
}

func TestEvaluateMissingStartDateFailsTenure(t *testing.T) {
	// No parseable start date means zero tenure, so the tenure gate blocks.
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{
		PerformanceRating: 85,
		PositionStart:     ISODate("not-a-date"),
		CourseCoverage:    70,
	}
	outcome := Evaluate(operatorRule(), m, today)
	assert.Equal(t, Outcome{Step: 2, FailedAt: GateTime}, outcome)
}

func TestEvaluateCoursesGate(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{
		PerformanceRating: 85,
		PositionStart:     TimeDate(today.AddDate(0, -6, 0)),
		CourseCoverage:    40,
		ExamGrade:         90,
	}
	outcome := Evaluate(operatorRule(), m, today)
	assert.Equal(t, Outcome{Step: 3, FailedAt: GateCourses}, outcome)
}

func TestEvaluateFailedExamMayRetake(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{
		PerformanceRating: 85,
		PositionStart:     TimeDate(today.AddDate(0, -6, 0)),
		CourseCoverage:    70,
		ExamGrade:         75,
	}
	outcome := Evaluate(operatorRule(), m, today)
	assert.Equal(t, Outcome{Step: 5, CanTakeExam: true, FailedAt: GateExam}, outcome)
}

func TestEvaluateGateOrderIsSequential(t *testing.T) {
	// When every check would fail, only the first gate is reported.
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{
		PerformanceRating: 10,
		PositionStart:     TimeDate(today),
		CourseCoverage:    10,
		ExamGrade:         10,
	}
	outcome := Evaluate(operatorRule(), m, today)
	assert.Equal(t, 1, outcome.Step)
	assert.Equal(t, GatePerformance, outcome.FailedAt)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{
		PerformanceRating: 85,
		PositionStart:     ISODate("2023-11-20"),
		CourseCoverage:    70,
		ExamGrade:         82,
	}
	first := Evaluate(operatorRule(), m, today)
	second := Evaluate(operatorRule(), m, today)
	assert.Equal(t, first, second)
}

func TestEvaluateBoundaryValues(t *testing.T) {
	// Thresholds are inclusive: meeting a minimum exactly passes the gate.
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := Metrics{
		PerformanceRating: 80,
		PositionStart:     TimeDate(today.AddDate(0, -6, 0)),
		CourseCoverage:    60,
		ExamGrade:         80,
	}
	outcome := Evaluate(operatorRule(), m, today)
	assert.True(t, outcome.Eligible)
	assert.Equal(t, 5, outcome.Step)
}
