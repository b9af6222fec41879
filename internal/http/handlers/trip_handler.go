// README: Trip handlers for publish/list/get.
package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"copool/internal/http/middleware"
	"copool/internal/maps"
	"copool/internal/modules/trip"
	"copool/internal/types"
)

type TripHandler struct {
	trips  *trip.Service
	routes *maps.RouteService
}

// NewTripHandler builds the trip handler. routes may be nil when no maps
// API key is configured; trip detail then omits the travel estimate.
func NewTripHandler(svc *trip.Service, routes *maps.RouteService) *TripHandler {
	return &TripHandler{trips: svc, routes: routes}
}

type publishTripReq struct {
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	DepartureAt  string `json:"departure_at"`
	PricePerSeat int64  `json:"price_per_seat"`
	Capacity     int    `json:"capacity"`
}

func (h *TripHandler) Publish(c *gin.Context) {
	var req publishTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	departure, err := time.Parse(time.RFC3339, req.DepartureAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, "departure_at must be RFC3339")
		return
	}
	id, err := h.trips.Publish(c.Request.Context(), trip.PublishCommand{
		DriverID:     types.ID(middleware.CallerUID(c)),
		Origin:       req.Origin,
		Destination:  req.Destination,
		DepartureAt:  departure,
		PricePerSeat: req.PricePerSeat,
		Capacity:     req.Capacity,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trip_id": id, "status": trip.StatusScheduled})
}

func (h *TripHandler) List(c *gin.Context) {
	trips, err := h.trips.ListUpcoming(c.Request.Context(), 50)
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

func (h *TripHandler) Get(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	resp := gin.H{"trip": t}
	if h.routes != nil {
		est, err := h.routes.GetTravelEstimate(c.Request.Context(), t.Origin, t.Destination)
		if err != nil {
			log.Printf("trip %s: travel estimate failed: %v", t.ID, err)
		} else {
			resp["travel_estimate"] = est
		}
	}
	c.JSON(http.StatusOK, resp)
}

func writeTripError(c *gin.Context, err error) {
	switch {
	case err == trip.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case err == trip.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
