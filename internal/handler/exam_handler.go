package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/danuarta/hr-promotion-api/internal/service"
	appErrors "github.com/danuarta/hr-promotion-api/pkg/errors"
	"github.com/danuarta/hr-promotion-api/pkg/jobs"
	"github.com/danuarta/hr-promotion-api/pkg/response"
)

// ExamHandler exposes exam ledger endpoints.
type ExamHandler struct {
	exams     *service.ExamService
	recompute *jobs.Queue
}

// NewExamHandler constructs ExamHandler. The queue is optional; without it
// recompute requests always run synchronously.
func NewExamHandler(exams *service.ExamService, recompute *jobs.Queue) *ExamHandler {
	return &ExamHandler{exams: exams, recompute: recompute}
}

// Record godoc
// @Summary Record an exam attempt
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body service.RecordAttemptRequest true "Attempt payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /employees/{id}/exams [post]
func (h *ExamHandler) Record(c *gin.Context) {
	var req service.RecordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	attempt, err := h.exams.RecordAttempt(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attempt)
}

// History godoc
// @Summary Exam history with cooldown verdict
// @Tags Exams
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/exams [get]
func (h *ExamHandler) History(c *gin.Context) {
	history, err := h.exams.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Cooldown godoc
// @Summary Current exam cooldown status
// @Tags Exams
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/exams/cooldown [get]
func (h *ExamHandler) Cooldown(c *gin.Context) {
	status, err := h.exams.CooldownStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Recompute godoc
// @Summary Recompute derived exam verdicts against the current rules
// @Tags Exams
// @Produce json
// @Param async query bool false "Run in the background and return immediately"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /exams/recompute [post]
func (h *ExamHandler) Recompute(c *gin.Context) {
	if h.recompute != nil && c.Query("async") == "true" {
		job := jobs.Job{ID: uuid.NewString(), Type: "exam-recompute"}
		if err := h.recompute.Enqueue(job); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to queue recompute"))
			return
		}
		response.Accepted(c, gin.H{"job_id": job.ID, "status": "queued"})
		return
	}

	summary, err := h.exams.RecomputeAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
