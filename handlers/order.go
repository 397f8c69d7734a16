package handlers

import (
	"net/http"

	"wellbe/services/order"
	"wellbe/utils"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Service order.OrderService
}

func NewOrderHandler(svc order.OrderService) *OrderHandler {
	return &OrderHandler{Service: svc}
}

// AcceptOrder turns a purchase-intent message into an order.
func (h *OrderHandler) AcceptOrder(c *gin.Context) {
	var in order.AcceptOrderInput
	if !bindJSON(c, &in) {
		return
	}
	in.ActorUserID = actor(c).UserID

	o, err := h.Service.AcceptOrder(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) RejectOrder(c *gin.Context) {
	var in order.RejectOrderInput
	if !bindJSON(c, &in) {
		return
	}
	in.ActorUserID = actor(c).UserID

	if err := h.Service.RejectOrder(c.Request.Context(), in); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageId": in.MessageID, "rejected": true})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	list, err := h.Service.ListOrders(c.Request.Context(), actor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.Service.GetOrder(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var in order.UpdateOrderStatusInput
	if !bindJSON(c, &in) {
		return
	}
	in.OrderID = c.Param("id")
	in.ActorUserID = actor(c).UserID

	o, err := h.Service.UpdateOrderStatus(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
