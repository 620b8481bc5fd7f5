package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/danuarta/hr-promotion-api/internal/models"
	"github.com/danuarta/hr-promotion-api/internal/service"
	appErrors "github.com/danuarta/hr-promotion-api/pkg/errors"
	"github.com/danuarta/hr-promotion-api/pkg/response"
)

// ProbationHandler exposes probation contract endpoints.
type ProbationHandler struct {
	probations *service.ProbationService
}

// NewProbationHandler constructs ProbationHandler.
func NewProbationHandler(probations *service.ProbationService) *ProbationHandler {
	return &ProbationHandler{probations: probations}
}

// List godoc
// @Summary List probation contracts
// @Tags Probation
// @Produce json
// @Param employeeId query string false "Filter by employee"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /probations [get]
func (h *ProbationHandler) List(c *gin.Context) {
	var filter models.ProbationFilter
	filter.EmployeeID = c.Query("employeeId")
	filter.Status = models.ProbationStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	contracts, pagination, err := h.probations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contracts, pagination)
}

// Get godoc
// @Summary Get probation contract
// @Tags Probation
// @Produce json
// @Param id path string true "Contract ID"
// @Success 200 {object} response.Envelope
// @Router /probations/{id} [get]
func (h *ProbationHandler) Get(c *gin.Context) {
	contract, err := h.probations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contract, nil)
}

// Create godoc
// @Summary Create probation contract
// @Tags Probation
// @Accept json
// @Produce json
// @Param payload body service.UpsertProbationRequest true "Contract payload"
// @Success 201 {object} response.Envelope
// @Router /probations [post]
func (h *ProbationHandler) Create(c *gin.Context) {
	var req service.UpsertProbationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	contract, err := h.probations.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contract)
}

// Update godoc
// @Summary Update probation contract
// @Tags Probation
// @Accept json
// @Produce json
// @Param id path string true "Contract ID"
// @Param payload body service.UpsertProbationRequest true "Contract payload"
// @Success 200 {object} response.Envelope
// @Router /probations/{id} [put]
func (h *ProbationHandler) Update(c *gin.Context) {
	var req service.UpsertProbationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	contract, err := h.probations.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contract, nil)
}

// Alerts godoc
// @Summary Probation contracts needing attention
// @Tags Probation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /probations/alerts [get]
func (h *ProbationHandler) Alerts(c *gin.Context) {
	alerts, err := h.probations.Alerts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, nil)
}
