package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListSessions returns all sessions, newest-created first.
// GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	sessions, activeID := h.service.ListSessions()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions":          sessions,
		"active_session_id": activeID,
	})
}

// CreateSession makes a new empty session and marks it active.
// POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()
	sess := h.service.CreateSession(ctx)
	return c.JSON(http.StatusCreated, sess)
}

// GetSession returns one session.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	sess, ok := h.service.GetSession(c.Param("session_id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return c.JSON(http.StatusOK, sess)
}

// RenameSession retitles a session.
// PATCH /v1/sessions/:session_id
func (h *Handler) RenameSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	var req struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if _, ok := h.service.GetSession(sessionID); !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	h.service.RenameSession(ctx, sessionID, req.Title)
	sess, _ := h.service.GetSession(sessionID)
	return c.JSON(http.StatusOK, sess)
}

// DeleteSession removes a session. Deleting an unknown session succeeds.
// DELETE /v1/sessions/:session_id
func (h *Handler) DeleteSession(c echo.Context) error {
	ctx := c.Request().Context()
	h.service.DeleteSession(ctx, c.Param("session_id"))
	return c.NoContent(http.StatusNoContent)
}

// SelectSession makes a session active.
// POST /v1/sessions/:session_id/select
func (h *Handler) SelectSession(c echo.Context) error {
	ctx := c.Request().Context()
	if !h.service.SelectSession(ctx, c.Param("session_id")) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
