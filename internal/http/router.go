// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"copool/internal/ai"
	"copool/internal/http/handlers"
	"copool/internal/http/middleware"
	"copool/internal/infra"
	"copool/internal/maps"
	"copool/internal/modules/booking"
	"copool/internal/modules/chat"
	"copool/internal/modules/trip"
)

type RouterDeps struct {
	Trips    *trip.Service
	Bookings *booking.Service
	Chat     *chat.Service

	// Optional integrations; nil disables the corresponding routes or fields.
	Routes    *maps.RouteService
	Suggester ai.ReplySuggester
	Devices   handlers.DeviceTokenStore

	Verifier infra.TokenVerifier

	// AllowInsecureAuth accepts an X-User-ID header when no bearer token is
	// present. Local development only.
	AllowInsecureAuth bool
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	auth := middleware.Auth(deps.Verifier)
	if deps.AllowInsecureAuth {
		auth = middleware.AuthAllowInsecure(deps.Verifier)
	}
	api := r.Group("/api", auth)

	tripHandler := handlers.NewTripHandler(deps.Trips, deps.Routes)
	api.POST("/trips", tripHandler.Publish)
	api.GET("/trips", tripHandler.List)
	api.GET("/trips/:id", tripHandler.Get)

	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings", bookingHandler.List)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	api.GET("/bookings/:id/refund-preview", bookingHandler.RefundPreview)

	chatHandler := handlers.NewChatHandler(deps.Chat, deps.Suggester)
	api.GET("/trips/:id/messages", chatHandler.History)
	api.POST("/trips/:id/messages", chatHandler.Send)
	api.POST("/trips/:id/messages/:messageID/read", chatHandler.Read)
	api.GET("/trips/:id/presence", chatHandler.Presence)
	api.GET("/trips/:id/chat/stream", chatHandler.Stream)
	api.GET("/trips/:id/chat/suggestions", chatHandler.Suggestions)

	if deps.Devices != nil {
		deviceHandler := handlers.NewDeviceHandler(deps.Devices)
		api.POST("/devices", deviceHandler.Register)
	}

	return r
}
