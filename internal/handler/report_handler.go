package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/danuarta/hr-promotion-api/internal/service"
	"github.com/danuarta/hr-promotion-api/pkg/response"
)

// ReportHandler exposes report export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// EligibilityRoster godoc
// @Summary Export the promotion eligibility roster
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param position query string false "Filter by position"
// @Success 200 {file} file
// @Router /reports/eligibility [get]
func (h *ReportHandler) EligibilityRoster(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))
	file, err := h.reports.EligibilityRoster(c.Request.Context(), c.Query("position"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// ProbationAlerts godoc
// @Summary Export probation contracts needing attention
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /reports/probation [get]
func (h *ReportHandler) ProbationAlerts(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))
	file, err := h.reports.ProbationAlerts(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

func serveFile(c *gin.Context, file *service.ReportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(200, file.ContentType, file.Content)
}
