package handlers

import (
	"net/http"

	"wellbe/services/booking"
	"wellbe/utils"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// CreateBooking books the caller into a session.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var in booking.CreateBookingInput
	if !bindJSON(c, &in) {
		return
	}
	in.ClientID = actor(c).UserID

	b, err := h.Service.CreateBooking(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	list, err := h.Service.ListBookings(c.Request.Context(), actor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var in booking.CancelBookingInput
	if !bindJSON(c, &in) {
		return
	}
	in.BookingID = c.Param("id")
	in.Actor = actor(c)

	b, err := h.Service.CancelBooking(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) ProcessPayment(c *gin.Context) {
	var in booking.ProcessPaymentInput
	if !bindJSON(c, &in) {
		return
	}
	in.BookingID = c.Param("id")
	in.PayerID = actor(c).UserID

	b, err := h.Service.ProcessPayment(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var in booking.UpdateStatusInput
	if !bindJSON(c, &in) {
		return
	}
	in.BookingID = c.Param("id")
	in.Actor = actor(c)

	b, err := h.Service.UpdateBookingStatus(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
