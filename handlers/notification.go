package handlers

import (
	"net/http"

	"wellbe/services/notification"
	"wellbe/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Service notification.NotificationService
}

func NewNotificationHandler(svc notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: svc}
}

// List returns the caller's notifications, newest first. ?unread=true
// limits the result to unread ones.
func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.Service.List(c.Request.Context(), actor(c).UserID, c.Query("unread") == "true")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.Service.MarkRead(c.Request.Context(), actor(c).UserID, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
