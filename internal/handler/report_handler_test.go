package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/danuarta/hr-promotion-api/internal/models"
	"github.com/danuarta/hr-promotion-api/internal/service"
)

type rosterMock struct {
	entries []models.EmployeeEligibility
	filter  models.EmployeeFilter
}

func (m *rosterMock) ListEligibility(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeEligibility, error) {
	m.filter = filter
	return m.entries, nil
}

type alerterMock struct {
	alerts *service.ProbationAlerts
}

func (m *alerterMock) Alerts(ctx context.Context) (*service.ProbationAlerts, error) {
	return m.alerts, nil
}

func newGinContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, nil)
	c.Request = req
	return c, w
}

func TestReportHandlerEligibilityRosterCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	roster := &rosterMock{entries: []models.EmployeeEligibility{
		{Employee: models.Employee{NIK: "1001", FullName: "Siti Rahma", Position: "OPERATOR"}},
	}}
	svc := service.NewReportService(roster, &alerterMock{alerts: &service.ProbationAlerts{}}, nil, 0, nil)
	h := NewReportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/reports/eligibility?format=csv&position=OPERATOR")
	h.EligibilityRoster(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	require.Contains(t, w.Body.String(), "Siti Rahma")
	require.Equal(t, "OPERATOR", roster.filter.Position)
}

func TestReportHandlerEligibilityRosterPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewReportService(&rosterMock{}, &alerterMock{alerts: &service.ProbationAlerts{}}, nil, 0, nil)
	h := NewReportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/reports/eligibility?format=pdf")
	h.EligibilityRoster(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestReportHandlerRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewReportService(&rosterMock{}, &alerterMock{alerts: &service.ProbationAlerts{}}, nil, 0, nil)
	h := NewReportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/reports/eligibility?format=xlsx")
	h.EligibilityRoster(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerProbationAlerts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	alerter := &alerterMock{alerts: &service.ProbationAlerts{
		Expiring: []models.ProbationContract{{EmployeeID: "emp-1", Status: models.ProbationActive}},
	}}
	svc := service.NewReportService(&rosterMock{}, alerter, nil, 0, nil)
	h := NewReportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/reports/probation")
	h.ProbationAlerts(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "emp-1")
}
