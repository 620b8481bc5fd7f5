package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danuarta/hr-promotion-api/internal/models"
)

type stubRoster struct {
	entries    []models.EmployeeEligibility
	lastFilter models.EmployeeFilter
	calls      int
}

func (s *stubRoster) ListEligibility(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeEligibility, error) {
	s.calls++
	s.lastFilter = filter
	return s.entries, nil
}

type stubAlerter struct {
	alerts ProbationAlerts
}

func (s *stubAlerter) Alerts(ctx context.Context) (*ProbationAlerts, error) {
	return &s.alerts, nil
}

func newReportFixture(t *testing.T) (*ReportService, *stubRoster) {
	t.Helper()
	evaluated := time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC)
	roster := &stubRoster{entries: []models.EmployeeEligibility{
		{
			Employee: models.Employee{ID: "emp-1", NIK: "1001", FullName: "Ani Susanti", Position: "OPERATOR", Active: true},
			Metrics: &models.EmployeeMetrics{
				Step: 5, Eligible: true, FailedAt: "none", LastEvaluatedAt: &evaluated,
			},
			Rule: &models.PromotionRule{CurrentPosition: "OPERATOR", Promotion: "SENIOR OPERATOR"},
		},
		{
			Employee: models.Employee{ID: "emp-2", NIK: "1002", FullName: "Budi Hartono", Position: "INTERN", Active: true},
		},
	}}
	svc := NewReportService(roster, &stubAlerter{}, nil, time.Minute, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc, roster
}

func TestReportEligibilityRosterCSV(t *testing.T) {
	svc, roster := newReportFixture(t)

	file, err := svc.EligibilityRoster(context.Background(), "", FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "eligibility-roster-20240601.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, 1, roster.calls)

	lines := bytes.Split(bytes.TrimSpace(file.Content), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "NIK")
	assert.Contains(t, string(lines[1]), "Ani Susanti")
	assert.Contains(t, string(lines[1]), "SENIOR OPERATOR")
	assert.Contains(t, string(lines[1]), "true")
	// Employee without metrics still appears with blank derived columns.
	assert.Contains(t, string(lines[2]), "Budi Hartono")
}

func TestReportEligibilityRosterPDF(t *testing.T) {
	svc, _ := newReportFixture(t)

	file, err := svc.EligibilityRoster(context.Background(), "OPERATOR", FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestReportRosterPassesPositionFilter(t *testing.T) {
	svc, roster := newReportFixture(t)

	_, err := svc.EligibilityRoster(context.Background(), "OPERATOR", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "OPERATOR", roster.lastFilter.Position)
}

func TestReportUnsupportedFormat(t *testing.T) {
	svc, _ := newReportFixture(t)

	_, err := svc.EligibilityRoster(context.Background(), "", ReportFormat("xlsx"))
	assert.Error(t, err)
}

type stubAttempts struct {
	attempts []models.ExamAttempt
}

func (s *stubAttempts) ListAll(ctx context.Context) ([]models.ExamAttempt, error) {
	return s.attempts, nil
}

func TestReportRosterShowsCooldown(t *testing.T) {
	svc, _ := newReportFixture(t)
	// One failure on May 20 blocks retakes until June 20.
	svc.WithAttempts(&stubAttempts{attempts: []models.ExamAttempt{{
		ID:         "att-1",
		EmployeeID: "emp-1",
		ExamDate:   time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		Passed:     false,
	}}})

	file, err := svc.EligibilityRoster(context.Background(), "", FormatCSV)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(file.Content), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "Cooldown Until")
	assert.Contains(t, string(lines[1]), "2024-06-20")
	assert.NotContains(t, string(lines[2]), "2024-06-20")
}

func TestReportProbationAlertsCSV(t *testing.T) {
	alerter := &stubAlerter{alerts: ProbationAlerts{
		Expiring: []models.ProbationContract{{
			ID: "pc-1", EmployeeID: "emp-1",
			StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			Status:    models.ProbationActive,
		}},
		TrainingOverdue: []models.ProbationContract{{
			ID: "pc-2", EmployeeID: "emp-2",
			StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Status:    models.ProbationActive,
		}},
	}}
	svc := NewReportService(&stubRoster{}, alerter, nil, time.Minute, zap.NewNop())

	file, err := svc.ProbationAlerts(context.Background(), FormatCSV)
	require.NoError(t, err)

	content := string(file.Content)
	assert.Contains(t, content, "Expiring")
	assert.Contains(t, content, "Training Overdue")
	assert.Contains(t, content, "2024-06-10")
}
