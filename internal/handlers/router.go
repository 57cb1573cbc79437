package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chris2590/meme-blazer/internal/services"
)

// Router handles HTTP routing setup
type Router struct {
	sessionHandler   *SessionHandler
	inventoryHandler *InventoryHandler
	burnHandler      *BurnHandler
	healthHandler    *HealthHandler
}

// NewRouter creates a new Router instance with all handlers
func NewRouter(
	sessions *services.SessionService,
	inventory services.InventoryServiceInterface,
	burnService services.BurnServiceInterface,
	healthHandler *HealthHandler,
) *Router {
	return &Router{
		sessionHandler:   NewSessionHandler(sessions),
		inventoryHandler: NewInventoryHandler(inventory, sessions),
		burnHandler:      NewBurnHandler(burnService),
		healthHandler:    healthHandler,
	}
}

// SetupAPIRoutes configures the workflow routes on the given group.
// The surface mirrors the orchestrator's operations exactly.
func (r *Router) SetupAPIRoutes(api *gin.RouterGroup) {
	api.POST("/session/connect", r.sessionHandler.Connect)
	api.POST("/session/disconnect", r.sessionHandler.Disconnect)
	api.GET("/referral", r.sessionHandler.Referral)

	api.GET("/inventory", r.inventoryHandler.Refresh)
	api.GET("/inventory/snapshot", r.inventoryHandler.Snapshot)

	api.POST("/burn/select", r.burnHandler.Select)
	api.POST("/burn/confirm", r.burnHandler.Confirm)
	api.POST("/burn/cancel", r.burnHandler.Cancel)
	api.GET("/burn/status", r.burnHandler.Status)
}

// SetupHealthRoutes configures health check routes
func (r *Router) SetupHealthRoutes(engine *gin.Engine) {
	health := engine.Group("/health")
	{
		health.GET("", r.healthHandler.GetHealth)          // Overall health
		health.GET("/live", r.healthHandler.GetLiveness)   // Liveness probe
		health.GET("/ready", r.healthHandler.GetReadiness) // Readiness probe
		health.GET("/db", r.healthHandler.GetDatabaseHealth)
		health.GET("/rpc", r.healthHandler.GetRPCHealth)
	}
}
