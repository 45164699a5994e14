package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/markethub/backend/internal/infrastructure/scheduler"
)

// SchedulerHandler exposes the period-close scheduler over HTTP
type SchedulerHandler struct {
	BaseHandler
	scheduler *scheduler.PeriodCloseScheduler
}

// NewSchedulerHandler creates a new SchedulerHandler
func NewSchedulerHandler(s *scheduler.PeriodCloseScheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

// closePeriodRequest addresses an explicit period for a manual close run
type closePeriodRequest struct {
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}

// GetStatus godoc
// @Summary      Get period-close scheduler status
// @Tags         period-close
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /period-close/status [get]
func (h *SchedulerHandler) GetStatus(c *gin.Context) {
	h.Success(c, h.scheduler.GetStatus())
}

// TriggerManualRun godoc
// @Summary      Trigger a period-close run for the previous month
// @Description  Runs the same job the monthly cron runs: one settlement and
// @Description  one commission invoice per store with activity in the period
// @Tags         period-close
// @Produce      json
// @Success      202 {object} dto.Response
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /period-close/run [post]
func (h *SchedulerHandler) TriggerManualRun(c *gin.Context) {
	if err := h.scheduler.TriggerManualRun(c.Request.Context()); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Accepted(c, gin.H{"message": "Period close run started"})
}

// TriggerPeriod godoc
// @Summary      Trigger a period-close run for an explicit period
// @Tags         period-close
// @Accept       json
// @Produce      json
// @Param        request body closePeriodRequest true "Period to close"
// @Success      202 {object} dto.Response
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /period-close/run-period [post]
func (h *SchedulerHandler) TriggerPeriod(c *gin.Context) {
	var req closePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.scheduler.TriggerPeriod(c.Request.Context(), req.PeriodStart, req.PeriodEnd); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Accepted(c, gin.H{"message": "Period close run started"})
}
