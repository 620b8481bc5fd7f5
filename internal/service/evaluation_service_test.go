package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danuarta/hr-promotion-api/internal/eligibility"
	"github.com/danuarta/hr-promotion-api/internal/models"
	"github.com/danuarta/hr-promotion-api/pkg/jobs"
)

type mockEmployeeRepo struct {
	employees map[string]models.Employee
	metrics   map[string]models.EmployeeMetrics
	putCalls  int
	err       error
}

func (m *mockEmployeeRepo) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	out := make([]models.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *mockEmployeeRepo) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if e, ok := m.employees[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeRepo) Create(ctx context.Context, employee *models.Employee) error {
	if m.employees == nil {
		m.employees = make(map[string]models.Employee)
	}
	if employee.ID == "" {
		employee.ID = "generated"
	}
	m.employees[employee.ID] = *employee
	return nil
}

func (m *mockEmployeeRepo) Update(ctx context.Context, employee *models.Employee) error {
	m.employees[employee.ID] = *employee
	return nil
}

func (m *mockEmployeeRepo) GetMetrics(ctx context.Context, employeeID string) (*models.EmployeeMetrics, error) {
	if v, ok := m.metrics[employeeID]; ok {
		return &v, nil
	}
	return nil, nil
}

func (m *mockEmployeeRepo) PutMetrics(ctx context.Context, metrics *models.EmployeeMetrics) error {
	if m.err != nil {
		return m.err
	}
	if m.metrics == nil {
		m.metrics = make(map[string]models.EmployeeMetrics)
	}
	m.putCalls++
	m.metrics[metrics.EmployeeID] = *metrics
	return nil
}

func (m *mockEmployeeRepo) ListEligibility(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeEligibility, error) {
	var out []models.EmployeeEligibility
	for _, e := range m.employees {
		entry := models.EmployeeEligibility{Employee: e}
		if v, ok := m.metrics[e.ID]; ok {
			metrics := v
			entry.Metrics = &metrics
		}
		out = append(out, entry)
	}
	return out, nil
}

type stubRules struct {
	rules map[string]eligibility.Rule
}

func (s *stubRules) Lookup(position string) (*eligibility.Rule, bool) {
	rule, ok := s.rules[eligibility.NormalizePosition(position)]
	if !ok {
		return nil, false
	}
	return &rule, true
}

func operatorRules() *stubRules {
	return &stubRules{rules: map[string]eligibility.Rule{
		"OPERATOR": {
			CurrentPosition:      "OPERATOR",
			Promotion:            "SENIOR OPERATOR",
			MinTenureMonths:      6,
			MinExamGrade:         70,
			MinCourseCoverage:    80,
			MinPerformanceRating: 4,
		},
	}}
}

func newEvaluationFixture(t *testing.T) (*EvaluationService, *mockEmployeeRepo) {
	t.Helper()
	repo := &mockEmployeeRepo{
		employees: map[string]models.Employee{
			"emp-1": {ID: "emp-1", NIK: "1001", FullName: "Ani Susanti", Position: "OPERATOR", Active: true},
		},
	}
	svc := NewEvaluationService(repo, operatorRules(), nil, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestEvaluationPersistDerivesOutcome(t *testing.T) {
	svc, repo := newEvaluationFixture(t)

	metrics, err := svc.Persist(context.Background(), "emp-1", MetricsInput{
		PerformanceRating: 4.5,
		PositionStartDate: "2023-01-15",
		CourseCoverage:    90,
		ExamGrade:         0,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, metrics.Step)
	assert.False(t, metrics.Eligible)
	assert.True(t, metrics.CanTakeExam)
	assert.Equal(t, string(eligibility.GateNone), metrics.FailedAt)
	require.NotNil(t, metrics.LastEvaluatedAt)
	assert.Equal(t, 1, repo.putCalls)

	stored := repo.metrics["emp-1"]
	assert.Equal(t, metrics.Step, stored.Step)
}

func TestEvaluationSnapshotAgreesWithStoredColumns(t *testing.T) {
	svc, _ := newEvaluationFixture(t)

	_, err := svc.Persist(context.Background(), "emp-1", MetricsInput{
		PerformanceRating: 4.5,
		PositionStartDate: "2023-01-15",
		CourseCoverage:    90,
		ExamGrade:         85,
	})
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(context.Background(), "emp-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot.Metrics)
	require.NotNil(t, snapshot.Current)
	require.NotNil(t, snapshot.Rule)

	assert.Equal(t, snapshot.Metrics.Step, snapshot.Current.Step)
	assert.Equal(t, snapshot.Metrics.Eligible, snapshot.Current.Eligible)
	assert.Equal(t, snapshot.Metrics.CanTakeExam, snapshot.Current.CanTakeExam)
	assert.Equal(t, snapshot.Metrics.FailedAt, string(snapshot.Current.FailedAt))
}

func TestEvaluationPersistMatchesPureEvaluation(t *testing.T) {
	svc, repo := newEvaluationFixture(t)
	today := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	inputs := []MetricsInput{
		{PerformanceRating: 3, PositionStartDate: "2023-01-15", CourseCoverage: 90, ExamGrade: 0},
		{PerformanceRating: 4.5, PositionStartDate: "2024-04-01", CourseCoverage: 90, ExamGrade: 0},
		{PerformanceRating: 4.5, PositionStartDate: "2023-01-15", CourseCoverage: 50, ExamGrade: 0},
		{PerformanceRating: 4.5, PositionStartDate: "2023-01-15", CourseCoverage: 90, ExamGrade: 85},
		{PerformanceRating: 4.5, PositionStartDate: "2023-01-15", CourseCoverage: 90, ExamGrade: 60},
	}
	rule, ok := operatorRules().Lookup("OPERATOR")
	require.True(t, ok)

	for _, input := range inputs {
		stored, err := svc.Persist(context.Background(), "emp-1", input)
		require.NoError(t, err)

		start := eligibility.Date{}
		if parsed := parseStoredDate(input.PositionStartDate); parsed != nil {
			start = eligibility.TimeDate(*parsed)
		}
		expected := eligibility.Evaluate(rule, eligibility.Metrics{
			PerformanceRating: input.PerformanceRating,
			PositionStart:     start,
			CourseCoverage:    input.CourseCoverage,
			ExamGrade:         input.ExamGrade,
		}, today)

		assert.Equal(t, expected.Step, stored.Step)
		assert.Equal(t, expected.Eligible, stored.Eligible)
		assert.Equal(t, expected.CanTakeExam, stored.CanTakeExam)
		assert.Equal(t, string(expected.FailedAt), stored.FailedAt)
	}
	assert.Equal(t, len(inputs), repo.putCalls)
}

func TestEvaluationPersistClampsGrades(t *testing.T) {
	svc, _ := newEvaluationFixture(t)

	metrics, err := svc.Persist(context.Background(), "emp-1", MetricsInput{
		PerformanceRating: 4,
		PositionStartDate: "2023-01-15",
		CourseCoverage:    130,
		ExamGrade:         103,
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, metrics.CourseCoverage)
	assert.Equal(t, 100.0, metrics.ExamGrade)
	assert.True(t, metrics.Eligible)
}

func TestEvaluationPersistNoRuleForPosition(t *testing.T) {
	svc, repo := newEvaluationFixture(t)
	repo.employees["emp-2"] = models.Employee{ID: "emp-2", NIK: "1002", FullName: "Budi", Position: "INTERN", Active: true}

	metrics, err := svc.Persist(context.Background(), "emp-2", MetricsInput{
		PerformanceRating: 5,
		PositionStartDate: "2020-01-01",
		CourseCoverage:    100,
		ExamGrade:         100,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, metrics.Step)
	assert.False(t, metrics.Eligible)
	assert.False(t, metrics.CanTakeExam)
}

func TestEvaluationPersistUnknownEmployee(t *testing.T) {
	svc, _ := newEvaluationFixture(t)

	_, err := svc.Persist(context.Background(), "missing", MetricsInput{PerformanceRating: 4})
	assert.Error(t, err)
}

func TestEvaluationSubmitCoalescesWrites(t *testing.T) {
	repo := &mockEmployeeRepo{
		employees: map[string]models.Employee{
			"emp-1": {ID: "emp-1", NIK: "1001", FullName: "Ani Susanti", Position: "OPERATOR", Active: true},
		},
	}
	debouncer := jobs.NewDebouncer(30*time.Millisecond, zap.NewNop())
	defer debouncer.Close()
	svc := NewEvaluationService(repo, operatorRules(), nil, nil, debouncer, zap.NewNop())

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Submit("emp-1", MetricsInput{
			PerformanceRating: 4.5,
			PositionStartDate: "2023-01-15",
			CourseCoverage:    float64(50 + i*10),
			ExamGrade:         0,
		}))
	}

	assert.Eventually(t, func() bool {
		return repo.putCalls == 1 && repo.metrics["emp-1"].CourseCoverage == 90
	}, time.Second, 10*time.Millisecond)
}

func TestEvaluationSyncExamGradeCreatesMetrics(t *testing.T) {
	svc, repo := newEvaluationFixture(t)

	require.NoError(t, svc.SyncExamGrade(context.Background(), "emp-1", 88))

	stored, ok := repo.metrics["emp-1"]
	require.True(t, ok)
	assert.Equal(t, 88.0, stored.ExamGrade)
	// With no other inputs recorded the performance gate blocks first.
	assert.Equal(t, 1, stored.Step)
	assert.Equal(t, string(eligibility.GatePerformance), stored.FailedAt)
}

func TestEvaluationUpdateEmployeeNormalizesPosition(t *testing.T) {
	svc, repo := newEvaluationFixture(t)

	employee, err := svc.UpdateEmployee(context.Background(), "emp-1", UpdateEmployeeRequest{
		NIK:      "1001",
		FullName: "Ani Susanti",
		Position: "  operator  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "OPERATOR", employee.Position)
	assert.Equal(t, "OPERATOR", repo.employees["emp-1"].Position)
}
