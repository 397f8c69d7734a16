package handlers

import (
	"net/http"

	"wellbe/services/session"
	"wellbe/utils"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service session.SessionService
}

func NewSessionHandler(svc session.SessionService) *SessionHandler {
	return &SessionHandler{Service: svc}
}

func (h *SessionHandler) Join(c *gin.Context) {
	var in session.JoinInput
	if !bindJSON(c, &in) {
		return
	}
	in.SessionID = c.Param("id")
	in.UserID = actor(c).UserID

	s, err := h.Service.JoinSession(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SessionHandler) Leave(c *gin.Context) {
	if err := h.Service.LeaveSession(c.Request.Context(), c.Param("id"), actor(c).UserID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Review(c *gin.Context) {
	var in session.ReviewInput
	if !bindJSON(c, &in) {
		return
	}
	in.SessionID = c.Param("id")
	in.UserID = actor(c).UserID

	s, err := h.Service.AddReview(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.RatingStats)
}
