// Package v1 provides the HTTP handlers for the assistant service.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk-ai/opsdesk/internal/hub"
	"github.com/opsdesk-ai/opsdesk/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service  *service.Service
	eventHub *hub.Hub
}

// NewHandler creates a new handler. The hub may be nil when the WebSocket
// route is not served.
func NewHandler(svc *service.Service, eventHub *hub.Hub) *Handler {
	return &Handler{
		service:  svc,
		eventHub: eventHub,
	}
}

// RegisterRoutes registers the routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/v1/sessions", h.ListSessions)
	e.POST("/v1/sessions", h.CreateSession)
	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.PATCH("/v1/sessions/:session_id", h.RenameSession)
	e.DELETE("/v1/sessions/:session_id", h.DeleteSession)
	e.POST("/v1/sessions/:session_id/select", h.SelectSession)
	e.GET("/v1/sessions/:session_id/messages", h.GetSessionMessages)

	e.POST("/v1/messages", h.SendMessage)

	e.GET("/ws", h.HandleWebSocket)
	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
