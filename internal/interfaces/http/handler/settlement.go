package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	settlementapp "github.com/markethub/backend/internal/application/settlement"
)

// SettlementHandler handles settlement API endpoints
type SettlementHandler struct {
	BaseHandler
	settlementService *settlementapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *settlementapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// periodQuery binds a settlement period from query parameters
type periodQuery struct {
	PeriodStart time.Time `form:"period_start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	PeriodEnd   time.Time `form:"period_end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// Generate godoc
// @Summary      Generate a settlement
// @Description  Aggregate a store's escrow and commission activity for a
// @Description  period into a draft settlement
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body settlement.GenerateRequest true "Settlement period"
// @Success      201 {object} dto.Response{data=settlement.SettlementResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /settlements [post]
func (h *SettlementHandler) Generate(c *gin.Context) {
	var req settlementapp.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	stmt, err := h.settlementService.Generate(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, stmt)
}

// Regenerate godoc
// @Summary      Regenerate a settlement
// @Description  Supersede a finalized settlement with a new version reflecting
// @Description  later refunds or adjustments
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      201 {object} dto.Response{data=settlement.SettlementResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /settlements/{id}/regenerate [post]
func (h *SettlementHandler) Regenerate(c *gin.Context) {
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID format")
		return
	}

	stmt, err := h.settlementService.Regenerate(c.Request.Context(), settlementID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, stmt)
}

// AddAdjustment godoc
// @Summary      Add a manual adjustment
// @Description  Append a signed correction to a draft settlement
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Param        request body settlement.AdjustmentRequest true "Adjustment"
// @Success      200 {object} dto.Response{data=settlement.SettlementResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /settlements/{id}/adjustments [post]
func (h *SettlementHandler) AddAdjustment(c *gin.Context) {
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID format")
		return
	}

	var req settlementapp.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	stmt, err := h.settlementService.AddAdjustment(c.Request.Context(), settlementID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stmt)
}

// Finalize godoc
// @Summary      Finalize a settlement
// @Description  Lock a draft settlement; further corrections require a new version
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {object} dto.Response{data=settlement.SettlementResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /settlements/{id}/finalize [post]
func (h *SettlementHandler) Finalize(c *gin.Context) {
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID format")
		return
	}

	stmt, err := h.settlementService.Finalize(c.Request.Context(), settlementID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stmt)
}

// GetByID godoc
// @Summary      Get settlement by ID
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {object} dto.Response{data=settlement.SettlementResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /settlements/{id} [get]
func (h *SettlementHandler) GetByID(c *gin.Context) {
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid settlement ID format")
		return
	}

	stmt, err := h.settlementService.Get(c.Request.Context(), settlementID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stmt)
}

// ListByStore godoc
// @Summary      List a store's settlements
// @Description  Current versions only, newest period first
// @Tags         settlements
// @Produce      json
// @Param        store_id path string true "Store ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]settlement.SettlementResponse}
// @Router       /stores/{store_id}/settlements [get]
func (h *SettlementHandler) ListByStore(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		h.BadRequest(c, "Invalid store ID format")
		return
	}

	settlements, err := h.settlementService.ListByStore(c.Request.Context(), storeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, settlements)
}

// ListVersions godoc
// @Summary      List all versions of a store's settlement for a period
// @Tags         settlements
// @Produce      json
// @Param        store_id path string true "Store ID" format(uuid)
// @Param        period_start query string true "Period start (RFC 3339)"
// @Param        period_end query string true "Period end (RFC 3339)"
// @Success      200 {object} dto.Response{data=[]settlement.SettlementResponse}
// @Router       /stores/{store_id}/settlements/versions [get]
func (h *SettlementHandler) ListVersions(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		h.BadRequest(c, "Invalid store ID format")
		return
	}

	var period periodQuery
	if err := c.ShouldBindQuery(&period); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	versions, err := h.settlementService.ListVersions(c.Request.Context(), storeID, period.PeriodStart, period.PeriodEnd)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, versions)
}
