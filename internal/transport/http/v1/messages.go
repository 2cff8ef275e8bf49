package v1

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk-ai/opsdesk/internal/service"
)

// GetSessionMessages returns the trailing messages of a session.
// GET /v1/sessions/:session_id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	sessionID := c.Param("session_id")

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 50
	}

	sess, ok := h.service.GetSession(sessionID)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	messages := sess.Messages
	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[len(messages)-limit:]
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"has_more": hasMore,
	})
}

// SendMessage runs one user turn through the pipeline.
// POST /v1/messages
func (h *Handler) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		SessionID string                 `json:"session_id"`
		Message   string                 `json:"message"`
		Profile   map[string]interface{} `json:"profile"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	result, err := h.service.SendMessage(ctx, req.SessionID, req.Message, req.Profile)
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is empty"})
	case errors.Is(err, service.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, service.ErrSessionBusy):
		return c.JSON(http.StatusConflict, map[string]string{"error": "a send is already in flight for this session"})
	case err != nil:
		log.Printf("ERROR: send failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to send message"})
	}

	return c.JSON(http.StatusOK, result)
}
