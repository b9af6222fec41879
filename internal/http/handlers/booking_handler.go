// README: Booking handlers for create/get/cancel/refund-preview.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"copool/internal/http/middleware"
	"copool/internal/modules/booking"
	"copool/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type createBookingReq struct {
	TripID  string `json:"trip_id"`
	Seats   int    `json:"seats"`
	Pickup  string `json:"pickup"`
	Dropoff string `json:"dropoff"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		TripID:      types.ID(req.TripID),
		PassengerID: types.ID(middleware.CallerUID(c)),
		Seats:       req.Seats,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) List(c *gin.Context) {
	out, err := h.bookings.ListByPassenger(c.Request.Context(), types.ID(middleware.CallerUID(c)), 50)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

type cancelBookingReq struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelBookingReq
	// Reason is optional; an empty body cancels with no reason.
	_ = c.ShouldBindJSON(&req)
	calc, err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID: types.ID(c.Param("id")),
		Reason:    req.Reason,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        booking.StatusCancelled,
		"refund_amount": calc.RefundAmount,
		"is_eligible":   calc.IsEligible,
		"reason":        calc.Reason,
	})
}

func (h *BookingHandler) RefundPreview(c *gin.Context) {
	calc, err := h.bookings.PreviewRefund(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if calc == nil {
		c.JSON(http.StatusOK, gin.H{"is_eligible": false, "reason": "booking already cancelled"})
		return
	}
	c.JSON(http.StatusOK, calc)
}
