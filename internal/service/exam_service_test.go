package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danuarta/hr-promotion-api/internal/eligibility"
	"github.com/danuarta/hr-promotion-api/internal/models"
	appErrors "github.com/danuarta/hr-promotion-api/pkg/errors"
)

type mockExamRepo struct {
	attempts    []models.ExamAttempt
	failUpdates map[string]bool
	updates     int
}

func (m *mockExamRepo) Append(ctx context.Context, attempt *models.ExamAttempt) error {
	if attempt.ID == "" {
		attempt.ID = "generated"
	}
	m.attempts = append(m.attempts, *attempt)
	return nil
}

func (m *mockExamRepo) ListByEmployee(ctx context.Context, employeeID string) ([]models.ExamAttempt, error) {
	var out []models.ExamAttempt
	for _, a := range m.attempts {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockExamRepo) ListAll(ctx context.Context) ([]models.ExamAttempt, error) {
	return append([]models.ExamAttempt(nil), m.attempts...), nil
}

func (m *mockExamRepo) UpdateDerived(ctx context.Context, id string, passed bool, minGradeRequired float64) error {
	if m.failUpdates[id] {
		return errors.New("write failed")
	}
	for i := range m.attempts {
		if m.attempts[i].ID == id {
			m.attempts[i].Passed = passed
			m.attempts[i].MinGradeRequired = minGradeRequired
			m.updates++
			return nil
		}
	}
	return errors.New("not found")
}

type stubEmployeeLookup struct {
	employees map[string]models.Employee
}

func (s *stubEmployeeLookup) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	if e, ok := s.employees[id]; ok {
		return &e, nil
	}
	return nil, appErrors.ErrNotFound
}

type stubSynchronizer struct {
	calls  int
	grades []float64
}

func (s *stubSynchronizer) SyncExamGrade(ctx context.Context, employeeID string, grade float64) error {
	s.calls++
	s.grades = append(s.grades, grade)
	return nil
}

func newExamFixture(t *testing.T) (*ExamService, *mockExamRepo, *stubSynchronizer) {
	t.Helper()
	repo := &mockExamRepo{failUpdates: make(map[string]bool)}
	sync := &stubSynchronizer{}
	lookup := &stubEmployeeLookup{employees: map[string]models.Employee{
		"emp-1": {ID: "emp-1", NIK: "1001", FullName: "Ani Susanti", Position: "OPERATOR", Active: true},
	}}
	svc := NewExamService(repo, lookup, operatorRules(), sync, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC) }
	return svc, repo, sync
}

func TestExamRecordAttemptSnapshotsRule(t *testing.T) {
	svc, repo, sync := newExamFixture(t)

	attempt, err := svc.RecordAttempt(context.Background(), "emp-1", RecordAttemptRequest{
		ExamDate: "2024-02-10",
		Grade:    85,
	})
	require.NoError(t, err)

	assert.True(t, attempt.Passed)
	assert.Equal(t, 70.0, attempt.MinGradeRequired)
	assert.Equal(t, "OPERATOR", attempt.Position)
	assert.Len(t, repo.attempts, 1)
	assert.Equal(t, 1, sync.calls)
	assert.Equal(t, []float64{85}, sync.grades)
}

func TestExamRecordAttemptCooldownBlocks(t *testing.T) {
	svc, repo, _ := newExamFixture(t)
	repo.attempts = []models.ExamAttempt{{
		ID: "att-1", EmployeeID: "emp-1", Position: "OPERATOR",
		ExamDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Grade:    60, MinGradeRequired: 70, Passed: false,
	}}

	_, err := svc.RecordAttempt(context.Background(), "emp-1", RecordAttemptRequest{
		ExamDate: "2024-02-10",
		Grade:    90,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCooldownActive.Code, appErr.Code)
	assert.Len(t, repo.attempts, 1)
}

func TestExamRecordAttemptForceBypassesCooldown(t *testing.T) {
	svc, repo, sync := newExamFixture(t)
	repo.attempts = []models.ExamAttempt{{
		ID: "att-1", EmployeeID: "emp-1", Position: "OPERATOR",
		ExamDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Grade:    60, MinGradeRequired: 70, Passed: false,
	}}

	attempt, err := svc.RecordAttempt(context.Background(), "emp-1", RecordAttemptRequest{
		ExamDate: "2024-02-10",
		Grade:    90,
		Force:    true,
	})
	require.NoError(t, err)
	assert.True(t, attempt.Passed)
	assert.Len(t, repo.attempts, 2)
	assert.Equal(t, 1, sync.calls)
}

func TestExamRecordAttemptNoRule(t *testing.T) {
	svc, _, _ := newExamFixture(t)
	lookup := svc.employees.(*stubEmployeeLookup)
	lookup.employees["emp-2"] = models.Employee{ID: "emp-2", Position: "INTERN", Active: true}

	_, err := svc.RecordAttempt(context.Background(), "emp-2", RecordAttemptRequest{
		ExamDate: "2024-02-10",
		Grade:    90,
	})
	assert.Error(t, err)
}

func TestExamHistoryIncludesCooldown(t *testing.T) {
	svc, repo, _ := newExamFixture(t)
	repo.attempts = []models.ExamAttempt{{
		ID: "att-1", EmployeeID: "emp-1", Position: "OPERATOR",
		ExamDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Grade:    60, MinGradeRequired: 70, Passed: false,
	}}

	history, err := svc.History(context.Background(), "emp-1")
	require.NoError(t, err)

	assert.Len(t, history.Attempts, 1)
	assert.False(t, history.Cooldown.CanRetake)
	require.NotNil(t, history.Cooldown.NextDate)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), *history.Cooldown.NextDate)
	assert.Equal(t, 5, history.Cooldown.DaysRemaining)
}

func TestExamRecomputeAllIsIdempotent(t *testing.T) {
	svc, repo, _ := newExamFixture(t)
	// Recorded under an older rule with a 60 minimum; the catalog now says 70.
	repo.attempts = []models.ExamAttempt{
		{ID: "att-1", EmployeeID: "emp-1", Position: "OPERATOR", Grade: 65, MinGradeRequired: 60, Passed: true},
		{ID: "att-2", EmployeeID: "emp-1", Position: "OPERATOR", Grade: 80, MinGradeRequired: 70, Passed: true},
	}

	summary, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.RecomputeSummary{Processed: 2, Changed: 1, Failed: 0}, summary)
	assert.False(t, repo.attempts[0].Passed)
	assert.Equal(t, 70.0, repo.attempts[0].MinGradeRequired)

	second, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.RecomputeSummary{Processed: 2, Changed: 0, Failed: 0}, second)
}

func TestExamRecomputeAllSkipsUnknownPositions(t *testing.T) {
	svc, repo, _ := newExamFixture(t)
	repo.attempts = []models.ExamAttempt{
		{ID: "att-1", EmployeeID: "emp-1", Position: "RETIRED ROLE", Grade: 65, MinGradeRequired: 60, Passed: true},
	}

	summary, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.RecomputeSummary{Processed: 0, Changed: 0, Failed: 0}, summary)
	assert.True(t, repo.attempts[0].Passed)
}

func TestExamRecomputeAllCountsFailures(t *testing.T) {
	svc, repo, _ := newExamFixture(t)
	repo.attempts = []models.ExamAttempt{
		{ID: "att-1", EmployeeID: "emp-1", Position: "OPERATOR", Grade: 65, MinGradeRequired: 60, Passed: true},
		{ID: "att-2", EmployeeID: "emp-1", Position: "OPERATOR", Grade: 66, MinGradeRequired: 60, Passed: true},
	}
	repo.failUpdates["att-1"] = true

	summary, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.RecomputeSummary{Processed: 2, Changed: 1, Failed: 1}, summary)
}

func TestExamCooldownStatusNoFailures(t *testing.T) {
	svc, _, _ := newExamFixture(t)

	status, err := svc.CooldownStatus(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.True(t, status.CanRetake)
	assert.Equal(t, eligibility.CooldownStatus{CanRetake: true}, *status)
}
