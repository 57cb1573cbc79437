package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chris2590/meme-blazer/internal/models"
	"github.com/chris2590/meme-blazer/internal/services"
	"github.com/chris2590/meme-blazer/pkg/logger"
)

// InventoryHandler exposes the asset inventory to the presentation layer
type InventoryHandler struct {
	inventory services.InventoryServiceInterface
	sessions  *services.SessionService
}

// NewInventoryHandler creates a new InventoryHandler instance
func NewInventoryHandler(inventory services.InventoryServiceInterface, sessions *services.SessionService) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		sessions:  sessions,
	}
}

// Refresh handles GET /api/inventory requests: it lists the connected
// wallet's assets and returns the rebuilt inventory. Re-triggering a
// listing while one is outstanding is safe; the most recent completed
// listing wins.
func (h *InventoryHandler) Refresh(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	session, ok := h.sessions.Current()
	if !ok {
		appErr := models.NewAppError(models.ErrorCodeNoSession, "No wallet connected")
		models.HandleError(c, appErr, log)
		return
	}

	// Tag the listing with the epoch it was issued for so a completion
	// after a session change is discarded
	epoch := h.sessions.Epoch()
	owner := session.Identity()

	log.Info("Refreshing asset inventory",
		zap.String("identity", owner.String()),
	)

	start := time.Now()
	assets, err := h.inventory.Refresh(c.Request.Context(), owner, epoch)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	log.Info("Inventory refresh completed",
		zap.Int("asset_count", len(assets)),
		zap.Duration("duration", time.Since(start)),
	)

	c.JSON(http.StatusOK, models.InventoryResponse{
		Identity: owner.String(),
		Assets:   assets,
	})
}

// Snapshot handles GET /api/inventory/snapshot requests: the current
// inventory without a new listing round trip
func (h *InventoryHandler) Snapshot(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	session, ok := h.sessions.Current()
	if !ok {
		appErr := models.NewAppError(models.ErrorCodeNoSession, "No wallet connected")
		models.HandleError(c, appErr, log)
		return
	}

	c.JSON(http.StatusOK, models.InventoryResponse{
		Identity: session.Identity().String(),
		Assets:   h.inventory.Snapshot(),
	})
}
