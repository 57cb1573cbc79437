package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chris2590/meme-blazer/internal/models"
	"github.com/chris2590/meme-blazer/internal/services"
	"github.com/chris2590/meme-blazer/pkg/logger"
)

// BurnHandler exposes the burn orchestrator's user-invocable actions
type BurnHandler struct {
	burnService services.BurnServiceInterface
}

// NewBurnHandler creates a new BurnHandler instance
func NewBurnHandler(burnService services.BurnServiceInterface) *BurnHandler {
	return &BurnHandler{
		burnService: burnService,
	}
}

// Select handles POST /api/burn/select requests
func (h *BurnHandler) Select(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.SelectBurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid JSON in burn select request", zap.Error(err))

		appErr := models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON,
			"Invalid JSON format",
			err.Error(),
		)
		models.HandleError(c, appErr, log)
		return
	}

	if req.AccountID == "" {
		appErr := models.NewValidationError("account_id is required", "")
		models.HandleError(c, appErr, log)
		return
	}

	if err := h.burnService.Select(req.AccountID, req.Action); err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, h.burnService.Status())
}

// Confirm handles POST /api/burn/confirm requests. The workflow proceeds
// asynchronously; clients poll Status for progress.
func (h *BurnHandler) Confirm(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	if err := h.burnService.Confirm(); err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusAccepted, h.burnService.Status())
}

// Cancel handles POST /api/burn/cancel requests
func (h *BurnHandler) Cancel(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	if err := h.burnService.Cancel(); err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, h.burnService.Status())
}

// Status handles GET /api/burn/status requests
func (h *BurnHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.burnService.Status())
}
