package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vidtube/internal/service"
)

// SubscriptionHandler toggles channel subscriptions.
type SubscriptionHandler struct {
	logger   *zap.Logger
	subsServ *service.SubscriptionService
}

func NewSubscriptionHandler(logger *zap.Logger, subsServ *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{logger: logger, subsServ: subsServ}
}

// Toggle handles POST /subscriptions/c/:channelId.
func (h *SubscriptionHandler) Toggle(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	channelID := c.Param("channelId")
	if channelID == "" {
		abortWithError(c, NewAPIError(http.StatusBadRequest, "channelId is required"))
		return
	}

	subscribed, err := h.subsServ.Toggle(c.Request.Context(), user.ID, channelID)
	if err != nil {
		h.logger.Warn("toggle subscription failed", zap.Error(err), zap.String("channelId", channelID))
		abortWithError(c, mapServiceError(err))
		return
	}

	message := "Subscription removed"
	if subscribed {
		message = "Subscribed successfully"
	}
	respond(c, http.StatusOK, gin.H{"subscribed": subscribed}, message)
}
