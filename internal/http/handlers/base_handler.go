// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"copool/internal/modules/booking"
	"copool/internal/modules/trip"
)

type errorResponse struct {
	Error     string   `json:"error"`
	Retryable bool     `json:"retryable,omitempty"`
	Remaining *int     `json:"remaining_seats,omitempty"`
	Details   []string `json:"details,omitempty"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeBookingError maps the reservation error taxonomy onto HTTP statuses.
// Retryable conflicts are flagged so clients know to re-fetch and retry
// instead of giving up.
func writeBookingError(c *gin.Context, err error) {
	var validation booking.ValidationError
	var insufficient booking.InsufficientSeatsError
	var conflict booking.ConflictError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: validation.Error(), Details: validation.Violations})
	case errors.As(err, &insufficient):
		remaining := insufficient.Remaining
		c.JSON(http.StatusConflict, errorResponse{Error: insufficient.Error(), Remaining: &remaining})
	case errors.As(err, &conflict):
		resp := errorResponse{Error: conflict.Error(), Retryable: true}
		if conflict.Remaining >= 0 {
			resp.Remaining = &conflict.Remaining
		}
		c.JSON(http.StatusConflict, resp)
	case errors.Is(err, booking.ErrAlreadyCancelled):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, trip.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
