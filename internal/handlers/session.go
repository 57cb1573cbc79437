package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chris2590/meme-blazer/internal/models"
	"github.com/chris2590/meme-blazer/internal/services"
	"github.com/chris2590/meme-blazer/pkg/logger"
)

// SessionHandler manages the wallet session lifecycle
type SessionHandler struct {
	sessions *services.SessionService
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// Connect handles POST /api/session/connect requests. A keypair session is
// established from the supplied private key; the response carries the
// identity and its referral code.
func (h *SessionHandler) Connect(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid JSON in connect request", zap.Error(err))

		appErr := models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON,
			"Invalid JSON format",
			err.Error(),
		)
		models.HandleError(c, appErr, log)
		return
	}

	session, err := services.NewKeypairSession(req.PrivateKey)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	info, err := h.sessions.Connect(session)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Disconnect handles POST /api/session/disconnect requests. Any in-flight
// burn fails with SESSION_LOST and the inventory is cleared.
func (h *SessionHandler) Disconnect(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	if err := h.sessions.Disconnect(); err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

// Referral handles GET /api/referral requests
func (h *SessionHandler) Referral(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	info, err := h.sessions.Info()
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code": info.ReferralCode,
		"referral_link": "https://memeblazer.io?ref=" + info.ReferralCode,
	})
}
