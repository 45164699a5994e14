package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	commissionapp "github.com/markethub/backend/internal/application/commission"
)

// CommissionHandler handles commission configuration and ledger API endpoints
type CommissionHandler struct {
	BaseHandler
	configService *commissionapp.ConfigService
	ledgerService *commissionapp.LedgerService
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(configService *commissionapp.ConfigService, ledgerService *commissionapp.LedgerService) *CommissionHandler {
	return &CommissionHandler{
		configService: configService,
		ledgerService: ledgerService,
	}
}

// ledgerPeriodQuery binds a ledger period from query parameters
type ledgerPeriodQuery struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// GetGlobalConfig godoc
// @Summary      Get the active global commission configuration
// @Tags         commission
// @Produce      json
// @Success      200 {object} dto.Response{data=commission.GlobalConfigResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commission/global-config [get]
func (h *CommissionHandler) GetGlobalConfig(c *gin.Context) {
	cfg, err := h.configService.GetGlobalConfig(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, cfg)
}

// SetGlobalConfig godoc
// @Summary      Activate a new global commission configuration
// @Description  The previous configuration is deactivated, not deleted, so
// @Description  historical commission records keep their audit trail
// @Tags         commission
// @Accept       json
// @Produce      json
// @Param        request body commission.SetGlobalConfigRequest true "Global rate"
// @Success      200 {object} dto.Response{data=commission.GlobalConfigResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commission/global-config [put]
func (h *CommissionHandler) SetGlobalConfig(c *gin.Context) {
	var req commissionapp.SetGlobalConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cfg, err := h.configService.SetGlobalConfig(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, cfg)
}

// GetStoreOverride godoc
// @Summary      Get a store's commission override
// @Tags         commission
// @Produce      json
// @Param        store_id path string true "Store ID" format(uuid)
// @Success      200 {object} dto.Response{data=commission.OverrideResponse}
// @Router       /commission/stores/{store_id}/override [get]
func (h *CommissionHandler) GetStoreOverride(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		h.BadRequest(c, "Invalid store ID format")
		return
	}

	override, err := h.configService.GetStoreOverride(c.Request.Context(), storeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, override)
}

// SetStoreOverride godoc
// @Summary      Set a store's commission override
// @Tags         commission
// @Accept       json
// @Produce      json
// @Param        store_id path string true "Store ID" format(uuid)
// @Param        request body commission.SetOverrideRequest true "Override components"
// @Success      200 {object} dto.Response{data=commission.OverrideResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commission/stores/{store_id}/override [put]
func (h *CommissionHandler) SetStoreOverride(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		h.BadRequest(c, "Invalid store ID format")
		return
	}

	var req commissionapp.SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	override, err := h.configService.SetStoreOverride(c.Request.Context(), storeID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, override)
}

// ClearStoreOverride godoc
// @Summary      Clear a store's commission override
// @Description  The store falls back to the global configuration
// @Tags         commission
// @Param        store_id path string true "Store ID" format(uuid)
// @Success      204
// @Router       /commission/stores/{store_id}/override [delete]
func (h *CommissionHandler) ClearStoreOverride(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		h.BadRequest(c, "Invalid store ID format")
		return
	}

	if err := h.configService.ClearStoreOverride(c.Request.Context(), storeID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetCategoryOverride godoc
// @Summary      Get a category's commission override
// @Tags         commission
// @Produce      json
// @Param        category_id path string true "Category ID" format(uuid)
// @Success      200 {object} dto.Response{data=commission.OverrideResponse}
// @Router       /commission/categories/{category_id}/override [get]
func (h *CommissionHandler) GetCategoryOverride(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("category_id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID format")
		return
	}

	override, err := h.configService.GetCategoryOverride(c.Request.Context(), categoryID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, override)
}

// SetCategoryOverride godoc
// @Summary      Set a category's commission override
// @Tags         commission
// @Accept       json
// @Produce      json
// @Param        category_id path string true "Category ID" format(uuid)
// @Param        request body commission.SetOverrideRequest true "Override components"
// @Success      200 {object} dto.Response{data=commission.OverrideResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commission/categories/{category_id}/override [put]
func (h *CommissionHandler) SetCategoryOverride(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("category_id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID format")
		return
	}

	var req commissionapp.SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	override, err := h.configService.SetCategoryOverride(c.Request.Context(), categoryID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, override)
}

// ClearCategoryOverride godoc
// @Summary      Clear a category's commission override
// @Tags         commission
// @Param        category_id path string true "Category ID" format(uuid)
// @Success      204
// @Router       /commission/categories/{category_id}/override [delete]
func (h *CommissionHandler) ClearCategoryOverride(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("category_id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID format")
		return
	}

	if err := h.configService.ClearCategoryOverride(c.Request.Context(), categoryID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ListLedgerByEscrow godoc
// @Summary      List the commission ledger of an escrow transaction
// @Description  The initial charge plus any refund reversals, oldest first
// @Tags         commission
// @Produce      json
// @Param        escrow_id path string true "Escrow transaction ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]commission.TransactionResponse}
// @Router       /commission/escrows/{escrow_id}/ledger [get]
func (h *CommissionHandler) ListLedgerByEscrow(c *gin.Context) {
	escrowID, err := uuid.Parse(c.Param("escrow_id"))
	if err != nil {
		h.BadRequest(c, "Invalid escrow transaction ID format")
		return
	}

	ledger, err := h.ledgerService.ListByEscrow(c.Request.Context(), escrowID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ledger)
}

// ListLedgerByStore godoc
// @Summary      List a store's commission ledger for a period
// @Tags         commission
// @Produce      json
// @Param        store_id path string true "Store ID" format(uuid)
// @Param        from query string true "Period start (RFC 3339)"
// @Param        to query string true "Period end (RFC 3339)"
// @Success      200 {object} dto.Response{data=[]commission.TransactionResponse}
// @Router       /commission/stores/{store_id}/ledger [get]
func (h *CommissionHandler) ListLedgerByStore(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		h.BadRequest(c, "Invalid store ID format")
		return
	}

	var period ledgerPeriodQuery
	if err := c.ShouldBindQuery(&period); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ledger, err := h.ledgerService.ListByStoreInPeriod(c.Request.Context(), storeID, period.From, period.To)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ledger)
}
